package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies errors the core returns to callers. Storage failures carry no kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindValidation
	KindConflict
	KindInvalidState
	KindNotFound
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindTimeout:
		return "TIMEOUT"
	case KindUnknown:
		return "UNKNOWN"
	}
	return "UNKNOWN"
}

// Error is a typed, recoverable failure.
type Error struct {
	Kind Kind

	// Op is the operation that failed (e.g. "matcher.Confirm").
	Op string

	// Field names the violated attribute or invariant, for VALIDATION errors.
	Field string

	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, apperrors.ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrTimeout      = &Error{Kind: KindTimeout}
)

func InvalidInput(op, message string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message, Err: err}
}

// Validation reports a violated entity invariant. field names the invariant.
func Validation(op, field, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

func InvalidState(op, message string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Message: message}
}

func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

func Timeout(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Message: "lock not acquired in time", Err: err}
}

// FromContext converts an expired deadline into a TIMEOUT. Cancellation and
// any other error are returned unchanged.
func FromContext(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	return err
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
