package assistant

import (
	"errors"
)

// Error types for classifying backend errors.

// TransientError represents a temporary error that may succeed on a later
// request. It never aborts the fallback chain.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error such as bad credentials or a
// malformed request. The failing backend is recorded and the chain moves on.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// Skip reasons recorded in Result.Errors when a backend never received the
// request.
const (
	reasonNotAvailable   = "not available"
	reasonRateLimited    = "rate limited"
	reasonInvalidQuality = "invalid response quality"
)
