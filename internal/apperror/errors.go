// Package apperror defines the error taxonomy shared by the service and
// handler layers.  Repositories return raw driver errors or their own
// sentinels; services convert them into one of the kinds below so that
// handlers only ever have to reason about four outcomes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	// KindInternal covers unclassified storage failures, timeouts and aborts.
	KindInternal Kind = iota
	// KindNotFound means a referenced movie, hall, showtime or user is missing.
	KindNotFound
	// KindConflict means a duplicate showtime or an already reserved seat.
	KindConflict
	// KindBadRequest means the client supplied unusable input.
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Error is a classified error.  Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
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

// Is reports whether target is an *Error of the same kind, which lets
// callers write errors.Is(err, apperror.ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Kind sentinels for errors.Is comparisons.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrBadRequest = &Error{Kind: KindBadRequest}
	ErrInternal   = &Error{Kind: KindInternal}
)

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

func BadRequest(msg string) error { return &Error{Kind: KindBadRequest, Message: msg} }

// BadRequestf formats the client message.
func BadRequestf(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps err as an internal failure.  An err that is already
// classified is returned unchanged.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal && ae.Message != "" {
		return ae.Message
	}
	return "internal error"
}
