package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBrokerError_Error(t *testing.T) {
	err := NewAuthError(401, "Unable to log in with provided credentials.")

	message := err.Error()
	if !strings.Contains(message, "AuthRejected") {
		t.Errorf("Expected the error type in the message, got %q", message)
	}
	if !strings.Contains(message, "status 401") {
		t.Errorf("Expected the status in the message, got %q", message)
	}
	if !strings.Contains(message, "Unable to log in") {
		t.Errorf("Expected the server message, got %q", message)
	}
}

func TestBrokerError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("POST /oauth2/token/", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be reachable via errors.Is")
	}

	wrapped := fmt.Errorf("login: %w", err)
	var be *BrokerError
	if !errors.As(wrapped, &be) || be.Type != ErrNetwork {
		t.Error("Expected errors.As to find the BrokerError through wrapping")
	}
}

func TestBrokerError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *BrokerError
		want bool
	}{
		{name: "throttled is retryable", err: NewThrottledError(400, 3), want: true},
		{name: "network is not", err: NewNetworkError("GET", errors.New("timeout")), want: false},
		{name: "auth rejection is not", err: NewAuthError(401, "nope"), want: false},
		{name: "validation is not", err: NewMfaValidationError("123"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("Expected IsRetryable=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsErrorType(t *testing.T) {
	err := NewSessionExpiredError(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	if !IsErrorType(err, ErrSessionExpired) {
		t.Error("Expected IsErrorType to match the error's type")
	}
	if IsErrorType(err, ErrNotFound) {
		t.Error("Expected IsErrorType to reject other types")
	}
	if IsErrorType(errors.New("plain"), ErrSessionExpired) {
		t.Error("Expected IsErrorType to reject non-broker errors")
	}
	if IsErrorType(nil, ErrSessionExpired) {
		t.Error("Expected IsErrorType to reject nil")
	}
}

func TestNewThrottledError(t *testing.T) {
	err := NewThrottledError(429, 12)

	if err.RetryAfter != 12 {
		t.Errorf("Expected RetryAfter 12, got %d", err.RetryAfter)
	}
	if err.Status != 429 {
		t.Errorf("Expected status 429, got %d", err.Status)
	}
	if err.Severity != SeverityWarning {
		t.Errorf("Expected warning severity for throttling, got %v", err.Severity)
	}
}
