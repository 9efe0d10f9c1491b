// Package repository provides persistence implementations for users,
// projects and episodes backed by PostgreSQL, plus an in-memory store
// with identical semantics.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound indicates the requested record does not exist
	// (or is not visible under the caller's predicate).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	pqUniqueViolation     pq.ErrorCode = "23505"
	pqForeignKeyViolation pq.ErrorCode = "23503"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}
