package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is the query surface shared by *sqlx.DB and *sqlx.Tx.
// Repositories accept an optional per-call executor so a service can run
// several repository calls within one transaction.
type DBExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
