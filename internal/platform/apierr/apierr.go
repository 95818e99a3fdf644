package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine codes exposed to clients. Storage error text never
// travels past this package.
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeForbidden        = "forbidden"
	CodeTransientStore   = "transient_store"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func CapacityExceeded(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeCapacityExceeded, fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, CodeForbidden, fmt.Errorf(format, args...))
}

// Transient wraps a storage-layer failure. The wrapped cause is kept for
// logs; the client-facing message stays generic.
func Transient(cause error) *Error {
	return New(http.StatusServiceUnavailable, CodeTransientStore, fmt.Errorf("store unavailable: %w", cause))
}

// ClientMessage returns the text safe to put on the wire. Transient
// store failures collapse to a generic message; the wrapped cause is
// for logs only.
func ClientMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	if CodeOf(err) == CodeTransientStore {
		return "store unavailable"
	}
	return err.Error()
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func IsValidation(err error) bool       { return CodeOf(err) == CodeValidation }
func IsNotFound(err error) bool         { return CodeOf(err) == CodeNotFound }
func IsCapacityExceeded(err error) bool { return CodeOf(err) == CodeCapacityExceeded }
func IsForbidden(err error) bool        { return CodeOf(err) == CodeForbidden }
func IsTransient(err error) bool        { return CodeOf(err) == CodeTransientStore }
