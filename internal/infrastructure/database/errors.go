package database

import (
	"errors"
	"fmt"
	"strings"

	"propertyops-backend/internal/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the services react to.
const (
	SQLStateSerializationFailure = "40001"
	SQLStateDeadlockDetected     = "40P01"
	SQLStateLockNotAvailable     = "55P03"
	SQLStateUniqueViolation      = "23505"
)

// Classify maps a raw store error onto the application taxonomy. Errors that
// are already typed pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.ErrUniqueViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SQLStateSerializationFailure, SQLStateDeadlockDetected, SQLStateLockNotAvailable:
			return apperr.Transient(err)
		case SQLStateUniqueViolation:
			return apperr.Wrap(apperr.ErrUniqueViolation, err)
		}
		return apperr.Internal(fmt.Errorf("sqlstate %s: %w", pgErr.Code, err))
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return apperr.Transient(err)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.Wrap(apperr.ErrUniqueViolation, err)
	}
	return apperr.Internal(err)
}
