package errors

import (
	"errors"
	"fmt"
)

// Common error types for the user pool and its clients
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserNotConfirmed   = errors.New("user is not confirmed")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("user already exists")
	ErrInvalidPassword    = errors.New("password does not conform to policy")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Client errors
	ErrInvalidClient      = errors.New("invalid client")
	ErrInvalidScope       = errors.New("invalid scope")
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// Session errors
	ErrNoSession    = errors.New("no authenticated session")
	ErrAuthDisabled = errors.New("authentication is not configured")

	ErrUnsupported   = errors.New("unsupported grant type")
	ErrInvalidInput  = errors.New("invalid request")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
	ErrLimitExceeded = errors.New("attempt limit exceeded")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Error codes used on the wire by the pool endpoints. The token endpoint
// follows RFC 6749 (invalid_grant, invalid_client ...); the rest mirror the
// managed provider's exception names in snake case.
var codes = []struct {
	err  error
	code string
}{
	{ErrUserNotConfirmed, "user_not_confirmed"},
	{ErrInvalidCredentials, "invalid_grant"},
	{ErrUserBlocked, "user_blocked"},
	{ErrInvalidRefreshToken, "invalid_grant"},
	{ErrRefreshTokenExpired, "invalid_grant"},
	{ErrInvalidClient, "invalid_client"},
	{ErrInvalidScope, "invalid_scope"},
	{ErrUsernameExists, "username_exists"},
	{ErrInvalidPassword, "invalid_password"},
	{ErrInvalidCode, "code_mismatch"},
	{ErrCodeExpired, "expired_code"},
	{ErrLimitExceeded, "limit_exceeded"},
	{ErrUserNotFound, "user_not_found"},
	{ErrTokenRevoked, "invalid_token"},
	{ErrTokenExpired, "invalid_token"},
	{ErrInvalidToken, "invalid_token"},
	{ErrInvalidInput, "invalid_request"},
	{ErrUnsupported, "unsupported_grant_type"},
}

// Code returns the wire code of the first sentinel in err's chain, and that sentinel.
// Unknown errors map to server_error and ErrInternal.
func Code(err error) (string, error) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, c.err
		}
	}
	return "server_error", ErrInternal
}

// FromCode maps a wire code back to its sentinel. invalid_grant maps to
// ErrInvalidCredentials, the only invalid_grant a password sign-in can see.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return ErrInternal
}
