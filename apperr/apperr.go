// Package apperr defines the closed set of error kinds the backend can
// produce. Controllers translate kinds to HTTP status codes; everything else
// matches with Is.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation covers missing or invalid input, rejected before any
	// side effect.
	KindValidation Kind = iota + 1
	// KindNotFound covers unknown sessions, products or users.
	KindNotFound
	// KindConflict covers writes against a session that is already DEALT or
	// ABANDONED, and duplicate open-session creation.
	KindConflict
	// KindBackend covers generation-backend errors and timeouts. Retryable;
	// the exchange leaves no partial writes.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error, preserving the chain.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func Validation(format string, args ...any) error { return New(KindValidation, format, args...) }
func NotFound(format string, args ...any) error   { return New(KindNotFound, format, args...) }
func Conflict(format string, args ...any) error   { return New(KindConflict, format, args...) }
func Backend(format string, args ...any) error    { return New(KindBackend, format, args...) }

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind carried by err, or 0 when err has none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
