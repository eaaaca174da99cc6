package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents page fetch failures (network, status, timeout)
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeRateLimit represents rate limiting by the listing site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDispatch represents notifier send failures
	ErrorTypeDispatch ErrorType = "dispatch"
	// ErrorTypePersistence represents seen store write failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents missing or invalid configuration
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeNotReady represents a notifier that has not produced a catalog yet
	ErrorTypeNotReady ErrorType = "not_ready"
)

// WatchError represents an error raised by the monitoring pipeline
type WatchError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later cycle may succeed where this one failed.
// Nothing is retried within a cycle. A failed persist is rolled back, so the
// listing comes up again; a failed dispatch is not, as the listing is already
// marked seen.
func (e *WatchError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch, ErrorTypeRateLimit, ErrorTypePersistence:
		return true
	default:
		return false
	}
}

// Retryable is IsRetryable for the first WatchError in err's chain. Untyped
// errors are not retryable.
func Retryable(err error) bool {
	var we *WatchError
	return stderrors.As(err, &we) && we.IsRetryable()
}

// New creates a new WatchError
func New(errType ErrorType, component, message string, err error) *WatchError {
	return &WatchError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(component, message string, err error) *WatchError {
	return New(ErrorTypeFetch, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *WatchError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewDispatch creates a new dispatch error
func NewDispatch(component, message string, err error) *WatchError {
	return New(ErrorTypeDispatch, component, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(component, message string, err error) *WatchError {
	return New(ErrorTypePersistence, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WatchError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewNotReady creates a new not-ready error
func NewNotReady(component string) *WatchError {
	return New(ErrorTypeNotReady, component, "notifier is not ready", nil)
}

// TypeOf returns the ErrorType of the first WatchError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.Type
	}
	return ""
}

// Is reports whether err carries a WatchError of the given type
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
