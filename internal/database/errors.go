package database

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateEmail is returned when an insert hits the unique email index.
// Handlers translate it to an AlreadyExists response instead of leaking the
// raw constraint error.
var ErrDuplicateEmail = errors.New("email already registered")

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
