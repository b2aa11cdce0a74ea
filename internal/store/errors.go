package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"agentdesk/internal/apperr"
)

const uniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key failures from every driver we run on.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// lookupErr converts a read failure. Missing rows become NotFound.
func lookupErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity)
	}
	return err
}

// writeErr converts a write failure. Duplicate keys become Conflict.
func writeErr(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperr.Conflict(conflictMsg)
	}
	return err
}
