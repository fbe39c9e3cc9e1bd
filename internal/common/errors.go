// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Oracle errors.
	ErrOracleFailed  = errors.New("oracle call failed")
	ErrEmptyResponse = errors.New("empty oracle response")
	ErrNoJSON        = errors.New("no JSON object in response")
	ErrNoFencedBlock = errors.New("no fenced JSON block in response")

	// Filesystem errors.
	ErrNotDirectory   = errors.New("not a directory")
	ErrOutputNotReady = errors.New("output directory not writable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable reports whether WithRetry should try err again. An explicit
// RetryableError mark decides; otherwise errors are assumed transient unless
// caused by the caller canceling.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	if errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return !errors.Is(err, context.Canceled)
}
