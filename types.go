package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserInfo is the identity record returned by the identity provider.
type UserInfo struct {
	ID       string         `json:"id"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SessionToken is the opaque credential issued by the identity provider.
// ExpiresAt is seconds since epoch, matching the provider's wire format.
type SessionToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *UserInfo `json:"user,omitempty"`
}

// Expired reports whether the token's expiry timestamp has passed.
// A zero ExpiresAt means the provider did not report one; treat as live.
func (s *SessionToken) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return s.ExpiresAt > 0 && s.ExpiresAt < now.Unix()
}

// AuthChangeEvent identifies a change notification from the identity provider.
type AuthChangeEvent string

const (
	AuthEventSignedIn       AuthChangeEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
)

// AuthChangeFunc receives provider change notifications. The session argument
// is nil for sign-out events.
type AuthChangeFunc func(event AuthChangeEvent, session *SessionToken)

// IdentityClient is the boundary to the hosted identity provider.
type IdentityClient interface {
	// IsConfigured reports whether real provider credentials are available.
	// Placeholder values count as unconfigured.
	IsConfigured() bool

	// GetSession returns the currently persisted session, or nil when there
	// is none. Implementations re-verify held credentials with the provider.
	GetSession(ctx context.Context) (*SessionToken, error)

	SignInWithPassword(ctx context.Context, identifier, secret string) (*UserInfo, *SessionToken, error)

	SignOut(ctx context.Context) error

	RefreshSession(ctx context.Context) (*UserInfo, *SessionToken, error)

	// OnAuthStateChange registers a change listener for the remainder of the
	// process lifetime. The returned function removes the listener.
	OnAuthStateChange(fn AuthChangeFunc) func()
}

// LoginPayload carries sign-in credentials plus the remember-me flag.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetRememberMe() bool
}

// Credentials is the plain LoginPayload implementation used by handlers.
type Credentials struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

func (c Credentials) GetIdentifier() string { return c.Identifier }
func (c Credentials) GetPassword() string   { return c.Password }
func (c Credentials) GetRememberMe() bool   { return c.RememberMe }

// RememberStore persists the remember-me identifier under a fixed key.
type RememberStore interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, identifier string) error
	Clear(ctx context.Context) error
}

// Config holds the authority's tunables.
type Config interface {
	GetMaxLoginAttempts() int
	GetLockoutDuration() time.Duration
	GetSessionTimeout() time.Duration
}

// NewDefaultLogger returns the stdout fallback logger used when no logger
// is injected.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
