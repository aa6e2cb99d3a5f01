package storage

import (
	"errors"
	"fmt"
)

// Error is a storage error with a stable code and a client-facing message.
type Error struct {
	Code    string // e.g. "KV-VAL-4001"
	Message string // Text sent to clients after the "ERR " prefix
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// newError creates an Error with the given code and message.
func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Engine errors.
var (
	ErrNotInteger = newError("KV-VAL-4001", "value is not an integer or out of range")
	ErrOverflow   = newError("KV-VAL-4002", "increment or decrement would overflow")
	ErrWrongType  = newError("KV-TYPE-4003", "Operation against a key holding the wrong kind of value")
)

// ClientMessage returns the message to send to a client for err.
// Errors that are not storage errors map to their Error() text.
func ClientMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
