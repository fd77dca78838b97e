package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

type userRow struct {
	ID             string       `db:"id"`
	Name           string       `db:"name"`
	Email          string       `db:"email"`
	Role           string       `db:"role"`
	IsActive       bool         `db:"is_active"`
	EmailConfirmed bool         `db:"email_confirmed"`
	PasswordHash   []byte       `db:"password_hash"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
	LastLogin      sql.NullTime `db:"last_login"`
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		Role:           usr.Role,
		IsActive:       usr.IsActive,
		EmailConfirmed: usr.EmailConfirmed,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func (repo userRepository) unrow(r userRow) user.User {
	return user.User{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Role:           r.Role,
		IsActive:       r.IsActive,
		EmailConfirmed: r.EmailConfirmed,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		LastLogin:      r.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" to the domain not-found sentinel; anything
// else is a transport failure.
func trapNoRowsErr(err error, notFound error, op string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return core.NewTransportError(err, op)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM app_user WHERE email = $1)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query = `SELECT EXISTS (SELECT 1 FROM app_user WHERE email = $1 AND NOT (id = ANY ($2)))`
		args = append(args, pqStringArray(ids))
	}

	var exists bool
	if err := repo.exec.GetContext(ctx, &exists, query, args...); err != nil {
		return core.NewTransportError(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := repo.row(usr)
	const query = `
		INSERT INTO app_user (id, name, email, role, is_active, email_confirmed, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :email, :role, :is_active, :email_confirmed, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlxNamedExec(ctx, repo.exec, query, r); err != nil {
		return user.User{}, core.NewTransportError(err, "inserting user")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var r userRow
	if err := repo.exec.GetContext(ctx, &r, `SELECT * FROM app_user WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by id")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var r userRow
	if err := repo.exec.GetContext(ctx, &r, `SELECT * FROM app_user WHERE email = $1`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by email")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	r := repo.row(usr)
	const query = `
		UPDATE app_user
		SET name = :name, email = :email, role = :role, is_active = :is_active,
		    email_confirmed = :email_confirmed, password_hash = :password_hash,
		    updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlxNamedExec(ctx, repo.exec, query, r)
	if err != nil {
		return user.User{}, core.NewTransportError(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unrow(r), nil
}
