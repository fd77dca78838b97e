// Package sqlxrepos implements the domain repositories on top of sqlx and
// PostgreSQL.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorlink/backend/core"
)

// NewDB wraps a *sql.DB opened by storage/database for use by the repositories.
func NewDB(db *sql.DB, driverName string) *sqlx.DB {
	return sqlx.NewDb(db, driverName)
}

func pqStringArray(ss []string) interface{} {
	return pq.Array(ss)
}

func sqlxNamedExec(ctx context.Context, exec core.DBExecutor, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, exec, query, arg)
}
