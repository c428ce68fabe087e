// Package postgres opens the database, applies migrations and provides the
// transaction manager and driver error mapping used by every postgres store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"volunteerhub/internal/platform/config"
	"volunteerhub/pkg/platform/sentinel"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

// IsUniqueViolation reports a primary key or unique constraint violation.
func IsUniqueViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == pgUniqueViolation
}

// IsForeignKeyViolation reports a reference to a missing parent row.
func IsForeignKeyViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == pgForeignKeyViolation
}

// IsCheckViolation reports a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == pgCheckViolation
}

// MapError translates driver errors into sentinel facts. Unknown errors are
// wrapped with op and passed through.
func MapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	case IsCheckViolation(err):
		return fmt.Errorf("%s: %w", op, sentinel.ErrInvalidState)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
