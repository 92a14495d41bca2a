package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return hasPgCode(err, "23505") // unique_violation
}

// IsPgUndefinedTableError checks if error reports a missing relation
func IsPgUndefinedTableError(err error) bool {
	return hasPgCode(err, "42P01") // undefined_table
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
