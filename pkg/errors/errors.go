package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Steam API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// ConfigurationError reports an invalid or missing setting. It is fatal: the
// run aborts before any task is crawled.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FetchError reports a single snapshot request that failed in transport or
// parsing. The affected task is abandoned for the run.
type FetchError struct {
	AppID uint32
	Date  time.Time
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch app %d as of %s: %v", e.AppID, e.Date.Format("2006-01-02"), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrBelowThreshold marks a task whose first snapshot did not exceed the
// minimum review count. It is an expected early exit, not a failure.
var ErrBelowThreshold = errors.New("review count below threshold")

// BelowThresholdError carries the counts behind ErrBelowThreshold.
type BelowThresholdError struct {
	AppID        uint32
	TotalReviews int
	Threshold    int
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("app %d: review count %d not above %d", e.AppID, e.TotalReviews, e.Threshold)
}

func (e *BelowThresholdError) Unwrap() error {
	return ErrBelowThreshold
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsFetch reports whether err is, or wraps, a FetchError.
func IsFetch(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}
