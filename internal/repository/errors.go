package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// isDuplicateKeyError reports a unique constraint violation from either dialect
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") // PostgreSQL unique violation code
}

func notFoundOr(err error, wrap func(error) error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return wrap(err)
}
