package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
	KindInternal   Kind = "internal"
)

// Error carries a kind, the failing operation and a user-facing message.
type Error struct {
	// Kind is the error class (validation, not_found, conflict, dependency).
	Kind Kind

	// Op is the operation that failed (e.g. "order.transition").
	Op string

	// Message is safe to show to the user.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the message shown to API clients.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Validation reports a user-correctable input or guard violation.
func Validation(op, message string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Err: err}
}

// NotFound reports a referenced row that does not exist.
func NotFound(op, entity string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: entity + " not found"}
}

// Conflict reports a lost optimistic-concurrency race.
func Conflict(op, message string, err error) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message, Err: err}
}

// Dependency reports a failure of the datastore, file store or email provider.
func Dependency(op, message string, err error) *Error {
	return &Error{Kind: KindDependency, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
