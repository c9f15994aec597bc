package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasks-api/internal/store"
)

// SQLSTATE codes for integrity constraint violations (class 23).
const (
	codeNotNull    = "23502"
	codeForeignKey = "23503"
	codeUnique     = "23505"
	codeCheck      = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == codeUnique }

// mapError translates driver errors into store errors. The original error
// stays in the chain; anything unrecognised is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUnique:
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case codeForeignKey, codeCheck:
		return fmt.Errorf("%w: constraint %s: %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case codeNotNull:
		return fmt.Errorf("%w: column %s is required: %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// mapUnique reports a unique violation as target, e.g. store.ErrEmailExists.
func mapUnique(err, target error) error {
	if !isUniqueViolation(err) {
		return err
	}
	return fmt.Errorf("%w: %w", target, err)
}

// requireRows returns notFound when an UPDATE or DELETE touched nothing.
func requireRows(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
