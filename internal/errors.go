package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents different types of errors
type ErrorType int

const (
	ErrNetwork ErrorType = iota
	ErrAuthRejected
	ErrMfaValidation
	ErrMfaResolver
	ErrPrecondition
	ErrNotFound
	ErrSessionExpired
	ErrThrottled
	ErrInvalidResponse
	ErrFileSystem
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityCritical
)

// BrokerError represents a brokerage API error with detailed information
type BrokerError struct {
	Status     int           `json:"status,omitempty"`
	Message    string        `json:"message"`
	Type       ErrorType     `json:"type"`
	Severity   ErrorSeverity `json:"severity"`
	RetryAfter int           `json:"retry_after,omitempty"` // seconds
	Cause      error         `json:"-"`
}

// Error implements the error interface
func (e *BrokerError) Error() string {
	parts := []string{fmt.Sprintf("broker error (%s)", e.Type.String())}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status %d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains
func (e *BrokerError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error is retryable
func (e *BrokerError) IsRetryable() bool {
	return e.Type == ErrThrottled
}

// WithRetryAfter sets the advertised wait for throttling errors
func (e *BrokerError) WithRetryAfter(seconds int) *BrokerError {
	e.RetryAfter = seconds
	return e
}

// WithStatus attaches the HTTP status that produced the error
func (e *BrokerError) WithStatus(status int) *BrokerError {
	e.Status = status
	return e
}

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrNetwork:
		return "Network"
	case ErrAuthRejected:
		return "AuthRejected"
	case ErrMfaValidation:
		return "MfaValidation"
	case ErrMfaResolver:
		return "MfaResolver"
	case ErrPrecondition:
		return "Precondition"
	case ErrNotFound:
		return "NotFound"
	case ErrSessionExpired:
		return "SessionExpired"
	case ErrThrottled:
		return "Throttled"
	case ErrInvalidResponse:
		return "InvalidResponse"
	case ErrFileSystem:
		return "FileSystem"
	default:
		return "Unknown"
	}
}

// String returns the string representation of ErrorSeverity
func (es ErrorSeverity) String() string {
	switch es {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// NewBrokerError creates a new BrokerError of the given type
func NewBrokerError(errorType ErrorType, message string) *BrokerError {
	return &BrokerError{
		Message:  message,
		Type:     errorType,
		Severity: defaultSeverity(errorType),
	}
}

// defaultSeverity returns the default severity for an error type
func defaultSeverity(errorType ErrorType) ErrorSeverity {
	switch errorType {
	case ErrThrottled, ErrNotFound, ErrSessionExpired:
		return SeverityWarning
	case ErrNetwork, ErrFileSystem:
		return SeverityCritical
	default:
		return SeverityError
	}
}

// IsErrorType reports whether err is (or wraps) a BrokerError of type t
func IsErrorType(err error, t ErrorType) bool {
	var be *BrokerError
	if errors.As(err, &be) {
		return be.Type == t
	}
	return false
}

// Common error constructors

// NewNetworkError creates an error for transport-level failures
func NewNetworkError(operation string, cause error) *BrokerError {
	e := NewBrokerError(ErrNetwork, fmt.Sprintf("request failed during %s", operation))
	e.Cause = cause
	return e
}

// NewAuthError creates an error for server-rejected credentials or MFA codes,
// carrying the server-provided message
func NewAuthError(status int, message string) *BrokerError {
	return NewBrokerError(ErrAuthRejected, message).WithStatus(status)
}

// NewMfaValidationError creates an error for a locally detected malformed
// MFA code; raised before any network call is attempted
func NewMfaValidationError(code string) *BrokerError {
	return NewBrokerError(ErrMfaValidation,
		fmt.Sprintf("MFA code %q is not a six-digit number", code))
}

// NewMfaResolverError creates an error for a failing challenge resolver
func NewMfaResolverError(cause error) *BrokerError {
	e := NewBrokerError(ErrMfaResolver, "MFA resolver failed")
	e.Cause = cause
	return e
}

// NewPreconditionError creates an error for operations invoked on an
// invalid or unauthenticated session
func NewPreconditionError(message string) *BrokerError {
	return NewBrokerError(ErrPrecondition, message)
}

// NewNotFoundError creates an error for a missing persisted session record
func NewNotFoundError(path string) *BrokerError {
	return NewBrokerError(ErrNotFound, fmt.Sprintf("no saved session at %s", path))
}

// NewSessionExpiredError creates an error for a stale persisted record
func NewSessionExpiredError(expiredAt time.Time) *BrokerError {
	return NewBrokerError(ErrSessionExpired,
		fmt.Sprintf("saved session expired at %s", expiredAt.Format(time.RFC3339)))
}

// NewThrottledError creates an error for a server-advertised cooldown
func NewThrottledError(status, retryAfter int) *BrokerError {
	return NewBrokerError(ErrThrottled, "request throttled by server").
		WithStatus(status).
		WithRetryAfter(retryAfter)
}

// NewInvalidResponseError creates an error for unparseable or unexpected
// server responses
func NewInvalidResponseError(status int, message string) *BrokerError {
	return NewBrokerError(ErrInvalidResponse, message).WithStatus(status)
}

// NewFileSystemError creates an error for local read/write/mkdir failures
func NewFileSystemError(operation, path string, cause error) *BrokerError {
	e := NewBrokerError(ErrFileSystem, fmt.Sprintf("%s failed for %s", operation, path))
	e.Cause = cause
	return e
}
