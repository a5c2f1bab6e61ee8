package auth

import (
	"regexp"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotConfigured   = "AUTH_NOT_CONFIGURED"
	textCodeTooManyAttempts = "AUTH_TOO_MANY_ATTEMPTS"
	textCodeBadCredentials  = "AUTH_INVALID_CREDENTIALS"
	textCodeSessionExpired  = "AUTH_SESSION_EXPIRED"
)

// ErrNotConfigured means the identity provider credentials are missing or
// placeholders. Terminal until an operator fixes configuration; never retried.
var ErrNotConfigured = goerrors.New("identity provider is not configured", goerrors.CategoryOperation).
	WithTextCode(textCodeNotConfigured).
	WithCode(goerrors.CodeInternal)

// ErrTooManyAttempts is the local throttle rejection; the provider is never
// contacted while it applies.
var ErrTooManyAttempts = goerrors.New("too many failed attempts", goerrors.CategoryRateLimit).
	WithTextCode(textCodeTooManyAttempts).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidCredentials wraps a provider sign-in rejection after message
// sanitization.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeBadCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is raised when a held session's expiry timestamp has
// passed or the provider no longer recognizes it.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// IsThrottledError reports whether err is the local throttle rejection.
func IsThrottledError(err error) bool {
	return hasTextCode(err, textCodeTooManyAttempts)
}

// IsNotConfiguredError reports whether err is the terminal configuration
// error.
func IsNotConfiguredError(err error) bool {
	return hasTextCode(err, textCodeNotConfigured)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

var sanitizeRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)password`), "credentials"},
	{regexp.MustCompile(`(?i)email`), "account"},
	{regexp.MustCompile(`(?i)user`), "account"},
}

// sanitizeErrorMessage strips field names from provider error text so a
// failed sign-in does not reveal which credential was wrong.
func sanitizeErrorMessage(message string) string {
	for _, rule := range sanitizeRules {
		message = rule.pattern.ReplaceAllString(message, rule.replacement)
	}
	return message
}
