// Package resilience provides error classification and bounded retry for
// external service calls.
package resilience

import (
	"errors"
	"syscall"
)

// TransientError marks an error as safe to retry (rate limit or 5xx-class
// server failure). Timeouts and 4xx-class responses are deliberately NOT
// transient: a timed-out research call is fatal for its section, and a
// client error will not improve on retry.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP
// status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error chain contains a TransientError or
// a connection-level failure that a fresh connection may fix.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientHTTPStatus reports whether an HTTP status code is safe to
// retry: 429 and the 5xx family.
func IsTransientHTTPStatus(statusCode int) bool {
	return statusCode == 429 || (statusCode >= 500 && statusCode <= 599)
}
