package service

import (
	"errors"
	"fmt"
)

// Kind classifies every error that crosses the orchestration boundary.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidState
	KindConflict
	KindValidation
	KindTimeout
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_error"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // field-level detail for validation errors
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Internal wraps an unexpected failure; the caller-facing message carries no
// internal detail, the cause stays available for logs and dev mode.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: err}
}

// KindOf extracts the kind from any error returned by a service; errors that
// were never classified count as internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	return KindInternal
}
