package broker

import (
	"context"
	"errors"
	"testing"

	"rhfetch/internal"
)

func TestValidateMfaCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "valid six digits", code: "123456", wantErr: false},
		{name: "leading zeros", code: "000042", wantErr: false},
		{name: "too short", code: "12345", wantErr: true},
		{name: "too long", code: "1234567", wantErr: true},
		{name: "non-numeric", code: "12345a", wantErr: true},
		{name: "empty", code: "", wantErr: true},
		{name: "whitespace", code: " 123456", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMfaCode(tt.code)
			if tt.wantErr {
				if !internal.IsErrorType(err, internal.ErrMfaValidation) {
					t.Errorf("Expected MfaValidation error for %q, got %v", tt.code, err)
				}
			} else if err != nil {
				t.Errorf("Expected %q to validate, got %v", tt.code, err)
			}
		})
	}
}

func TestFuncResolver(t *testing.T) {
	resolver := FuncResolver(func(ctx context.Context) (string, error) {
		return "123456", nil
	})

	code, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if code != "123456" {
		t.Errorf("Expected code 123456, got %s", code)
	}
}

func TestFuncResolver_Failure(t *testing.T) {
	cause := errors.New("push notification timed out")
	resolver := FuncResolver(func(ctx context.Context) (string, error) {
		return "", cause
	})

	_, err := resolver.Resolve(context.Background())
	if !internal.IsErrorType(err, internal.ErrMfaResolver) {
		t.Fatalf("Expected MfaResolver error, got %v", err)
	}
	// The underlying failure stays reachable for callers
	if !errors.Is(err, cause) {
		t.Error("Expected the resolver's own error to be wrapped")
	}
}
