// Package repository implements data access over database/sql. Sentinel
// errors defined here let handlers translate failures into HTTP codes
// without inspecting driver errors themselves.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is the base uniqueness-violation error. The named variants
// below wrap it, so errors.Is(err, ErrConflict) matches all of them.
// Handlers translate any of these into HTTP 409.
var ErrConflict = errors.New("conflict")

var (
	ErrNicknameExists = fmt.Errorf("%w: nickname already taken", ErrConflict)
	ErrEmailExists    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrGenreExists    = fmt.Errorf("%w: genre name already exists", ErrConflict)
	ErrAlreadyListed  = fmt.Errorf("%w: title already in list", ErrConflict)
	ErrAlreadyRated   = fmt.Errorf("%w: title already rated by user", ErrConflict)
)

// ErrGenreMissing is returned by genre-set replacement when a referenced
// genre id does not exist. It is wrapped with the offending id, e.g.
// "genre 7: genre not found".
var ErrGenreMissing = errors.New("genre not found")

// isDuplicate reports whether a driver error is a unique-index violation.
// The service-level existence pre-checks produce friendly errors on the
// common path, but under concurrent inserts both callers can pass the
// pre-check; the unique index is the actual backstop and its violation
// must map to the same Conflict outcome. MySQL reports error 1062
// ("Duplicate entry ... for key ..."), sqlite (used in tests) reports
// "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}

// dupOn narrows a duplicate-key error to the column it fired on, matching
// the index or column name embedded in the driver message.
func dupOn(err error, column string) bool {
	return isDuplicate(err) && strings.Contains(strings.ToLower(err.Error()), column)
}
