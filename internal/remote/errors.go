package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Code classifies a remote failure.
type Code string

const (
	CodePermissionDenied Code = "permission-denied"
	CodeUnavailable      Code = "unavailable"
	CodeNotFound         Code = "not-found"
	CodeAlreadyExists    Code = "already-exists"
	CodeUnauthenticated  Code = "unauthenticated"
	CodeUnknown          Code = "unknown"
)

// Error is a classified remote failure. Callers branch on Code to decide
// whether an operation should be queued for replay or surfaced immediately.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remote: %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// UserMessage returns a short explanation suitable for display.
func (e *Error) UserMessage() string {
	switch e.Code {
	case CodePermissionDenied:
		return "You don't have permission to perform this action."
	case CodeUnavailable:
		return "Service temporarily unavailable. Your changes are saved locally and will sync when you're back online."
	case CodeNotFound:
		return "The requested record was not found."
	case CodeAlreadyExists:
		return "This record already exists."
	case CodeUnauthenticated:
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}

// Retryable reports whether the failure is connectivity-class and the
// operation should be queued and replayed rather than surfaced.
func (e *Error) Retryable() bool {
	return e.Code == CodeUnavailable
}

// IsRetryable reports whether err is a connectivity-class remote failure.
func IsRetryable(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Retryable()
}

// IsNotFound reports whether err is a not-found remote failure.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeNotFound
}

func codeForStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}

// transportError wraps a failure that happened before any HTTP status was
// received. Timeouts, refused connections and DNS failures all classify as
// unavailable so the caller queues the operation instead of dropping it.
func transportError(err error) *Error {
	code := CodeUnavailable
	if errors.Is(err, context.Canceled) {
		code = CodeUnknown
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		code = CodeUnavailable
	}
	return &Error{Code: code, Message: err.Error(), cause: err}
}
