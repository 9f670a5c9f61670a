package source

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for source calls.
type ErrorCategory string

const (
	// ErrorAuthentication indicates rejected credentials (HTTP 401).
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorPermission indicates a missing scope (HTTP 403).
	ErrorPermission ErrorCategory = "permission"

	// ErrorBadData indicates the source reported a mapping or validation
	// conflict (HTTP 422).
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorRateLimited indicates too many requests (HTTP 429).
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorOutage indicates the source is unreachable or returned an
	// unexpected status.
	ErrorOutage ErrorCategory = "outage"

	// ErrorNotFound indicates the requested record does not exist upstream.
	ErrorNotFound ErrorCategory = "not_found"
)

// Error wraps source failures with normalized categorization so the importer
// can classify them without inspecting HTTP details.
type Error struct {
	Category   ErrorCategory
	Hostname   string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Hostname, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Hostname, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// NewError creates a normalized source error.
func NewError(category ErrorCategory, hostname, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Hostname:   hostname,
		Message:    message,
		Underlying: underlying,
	}
}

// Category extracts the error category, defaulting to ErrorOutage for
// anything that did not come from this package.
func Category(err error) ErrorCategory {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorOutage
}
