// Package apperr defines error kinds shared by services and the HTTP layer.
// Services wrap a kind into their own sentinel errors; handlers map kinds to
// status codes without importing every service package.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func BadRequest(msg string) error   { return &kindError{kind: ErrBadRequest, msg: msg} }
func Unauthorized(msg string) error { return &kindError{kind: ErrUnauthorized, msg: msg} }
func NotFound(msg string) error     { return &kindError{kind: ErrNotFound, msg: msg} }

// ValidationError carries every violation found while validating a request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// Add records a violation.
func (e *ValidationError) Add(msg string) {
	e.Violations = append(e.Violations, msg)
}

// Err returns nil when no violation was recorded.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
