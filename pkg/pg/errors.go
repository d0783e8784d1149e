package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidConnectionString = errors.New("invalid postgres connection string")
	ErrConnectionFailed        = errors.New("failed to open postgres connection")
	ErrHealthcheckFailed       = errors.New("postgres healthcheck failed")
	ErrMigrationFailed         = errors.New("failed to apply migrations")
)

// IsNotFound reports whether err means the query matched no rows.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports a referential integrity violation
// (SQLSTATE 23503).
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
