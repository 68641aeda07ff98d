package services

import (
	"fmt"

	"github.com/pkg/errors"

	"golang-physiobackend/database"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindDownstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDownstream:
		return "downstream"
	default:
		return "internal"
	}
}

// Error is what every service method returns on failure. Message is safe to
// show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(message string) error {
	return newError(KindValidation, message, nil)
}

func notFound(message string) error {
	return newError(KindNotFound, message, nil)
}

func internal(err error, context string) error {
	return newError(KindInternal, "internal server error", errors.Wrap(err, context))
}

func downstream(err error, message string) error {
	return newError(KindDownstream, message, errors.WithStack(err))
}

// storeError turns the store sentinels into kinds and wraps anything else as
// internal.
func storeError(err error, notFoundMessage, context string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return newError(KindNotFound, notFoundMessage, err)
	case errors.Is(err, database.ErrDuplicate):
		return newError(KindConflict, "el registro ya existe", err)
	default:
		return internal(err, context)
	}
}

// KindOf reports the kind of err, KindInternal when err is not a service
// error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// passthrough returns err unchanged when it is already a service error.
func passthrough(err error, context string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return internal(err, context)
}
