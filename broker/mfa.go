package broker

import (
	"context"
	"io"
	"os"
	"regexp"

	"rhfetch/internal"
	"rhfetch/utils"
)

var mfaCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateMfaCode checks that a resolved code is a six-digit number. The
// check runs before the code is ever sent to the server.
func ValidateMfaCode(code string) error {
	if !mfaCodePattern.MatchString(code) {
		return internal.NewMfaValidationError(code)
	}
	return nil
}

// InteractiveResolver blocks on a masked terminal read for the MFA code.
// A single read is taken; validation is left to the caller.
type InteractiveResolver struct {
	Out io.Writer
}

// NewInteractiveResolver creates a resolver prompting on stderr
func NewInteractiveResolver() *InteractiveResolver {
	return &InteractiveResolver{Out: os.Stderr}
}

// Resolve implements internal.MfaResolver
func (r *InteractiveResolver) Resolve(ctx context.Context) (string, error) {
	code, err := utils.ReadSecret("Enter MFA code: ", r.Out)
	if err != nil {
		return "", internal.NewMfaResolverError(err)
	}
	return code, nil
}

// FuncResolver adapts a caller-supplied function into an MfaResolver.
// A failure of the function itself surfaces as an MfaResolver error,
// distinct from a validation failure of the returned value.
type FuncResolver func(ctx context.Context) (string, error)

// Resolve implements internal.MfaResolver
func (f FuncResolver) Resolve(ctx context.Context) (string, error) {
	code, err := f(ctx)
	if err != nil {
		return "", internal.NewMfaResolverError(err)
	}
	return code, nil
}
