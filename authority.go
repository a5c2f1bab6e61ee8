package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 15 * time.Minute
	DefaultSessionTimeout   = time.Hour
)

const (
	msgNotConfigured   = "Identity provider configuration missing. Please set up your environment variables."
	msgSessionExpired  = "Session expired. Please log in again."
	msgIdleTimeout     = "Session expired due to inactivity"
	msgInvalidSession  = "Invalid session"
	msgExpiredSession  = "Session expired"
	msgRefreshFailed   = "Session refresh failed"
	unknownFingerprint = "unknown"
)

// Authority is the single source of truth for authentication status. It is
// constructed once by the application root and threaded to every consumer;
// all operations publish their outcome as a state snapshot and never panic
// across the public boundary.
type Authority struct {
	client      IdentityClient
	clock       Clock
	logger      Logger
	remember    RememberStore
	sink        ActivitySink
	fingerprint FingerprintFunc
	attempts    *throttle

	sessionTimeout time.Duration

	mu           sync.Mutex
	state        State
	listeners    map[int]ListenerFunc
	nextListener int
	timer        Timer
	unsubClient  func()
}

// Option customizes Authority construction.
type Option func(*Authority)

// WithClock injects a custom clock, used by tests to simulate time.
func WithClock(clock Clock) Option {
	return func(a *Authority) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithLogger(logger Logger) Option {
	return func(a *Authority) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRememberStore sets the store holding the remember-me identifier.
func WithRememberStore(store RememberStore) Option {
	return func(a *Authority) {
		if store != nil {
			a.remember = store
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) Option {
	return func(a *Authority) {
		a.sink = normalizeActivitySink(sink)
	}
}

// WithFingerprintFunc overrides how the throttling bucket key is derived.
func WithFingerprintFunc(fn FingerprintFunc) Option {
	return func(a *Authority) {
		if fn != nil {
			a.fingerprint = fn
		}
	}
}

// NewAuthority returns a new Authority bound to the given identity client.
// Call Bootstrap before serving requests.
func NewAuthority(client IdentityClient, cfg Config, opts ...Option) *Authority {
	maxAttempts := DefaultMaxLoginAttempts
	lockout := DefaultLockoutDuration
	timeout := DefaultSessionTimeout

	if cfg != nil {
		if v := cfg.GetMaxLoginAttempts(); v > 0 {
			maxAttempts = v
		}
		if v := cfg.GetLockoutDuration(); v > 0 {
			lockout = v
		}
		if v := cfg.GetSessionTimeout(); v > 0 {
			timeout = v
		}
	}

	a := &Authority{
		client:         client,
		clock:          systemClock{},
		logger:         defLogger{},
		remember:       NewMemoryRememberStore(),
		sink:           noopActivitySink{},
		fingerprint:    deviceFingerprint,
		sessionTimeout: timeout,
		state:          State{Loading: true},
		listeners:      map[int]ListenerFunc{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	a.attempts = newThrottle(maxAttempts, lockout, a.clock)

	return a
}

// Configured reports whether the identity client has real credentials.
func (a *Authority) Configured() bool {
	return a.client != nil && a.client.IsConfigured()
}

// Bootstrap resolves the initial authentication state: configuration check,
// persisted-session fetch, proactive expiry sign-out, and registration for
// provider change notifications. Invoked once at startup.
func (a *Authority) Bootstrap(ctx context.Context) {
	if !a.Configured() {
		a.publish(func(s *State) {
			s.Err = msgNotConfigured
			s.Loading = false
		})
		return
	}

	session, err := a.client.GetSession(ctx)
	if err != nil {
		a.logger.Error("bootstrap session fetch error: %v", err)
		a.publish(func(s *State) {
			s.Err = err.Error()
			s.Loading = false
		})
		return
	}

	switch {
	case session != nil && session.Expired(a.clock.Now()):
		// Stale persisted session: clear provider-side state too.
		if err := a.client.SignOut(ctx); err != nil {
			a.logger.Warn("bootstrap provider sign out error: %v", err)
		}
		a.publish(func(s *State) {
			s.User = nil
			s.Session = nil
			s.Loading = false
			s.Err = msgSessionExpired
		})
	case session != nil:
		a.publish(func(s *State) {
			s.User = session.User
			s.Session = session
			s.Loading = false
			s.Err = ""
		})
		a.armTimer()
	default:
		a.publish(func(s *State) {
			s.User = nil
			s.Session = nil
			s.Loading = false
			s.Err = ""
		})
	}

	a.mu.Lock()
	a.unsubClient = a.client.OnAuthStateChange(a.handleAuthChange)
	a.mu.Unlock()
}

// handleAuthChange mirrors provider-side transitions into local state.
func (a *Authority) handleAuthChange(event AuthChangeEvent, session *SessionToken) {
	switch event {
	case AuthEventSignedOut, AuthEventTokenRefreshed:
		a.cancelTimer()
		a.publish(func(s *State) {
			s.User = nil
			s.Session = nil
			s.Loading = false
			s.Err = ""
		})
	case AuthEventSignedIn:
		if session == nil {
			return
		}
		a.armTimer()
		a.publish(func(s *State) {
			s.User = session.User
			s.Session = session
			s.Loading = false
			s.Err = ""
		})
	}
}

// SignIn performs a password sign-in with local brute-force throttling.
// The provider is never contacted while the caller's fingerprint is locked
// out. Failures are recorded and the provider's message sanitized before it
// is published or returned.
func (a *Authority) SignIn(ctx context.Context, payload LoginPayload) error {
	if !a.Configured() {
		return ErrNotConfigured
	}

	fingerprint := a.clientFingerprint()

	if remaining := a.attempts.remaining(fingerprint); remaining > 0 {
		minutes := int((remaining + time.Minute - 1) / time.Minute)
		a.emit(ctx, ActivityEventLoginThrottled, ActorRef{Type: "unknown"}, "", map[string]any{
			"fingerprint":         fingerprint,
			"retry_after_minutes": minutes,
		})
		return ErrTooManyAttempts.WithMetadata(map[string]any{
			"retry_after_minutes": minutes,
			"message":             fmt.Sprintf("Too many failed attempts. Please try again in %d minutes.", minutes),
		})
	}

	// Loading must be visible before the network call so guards defer
	// instead of redirecting mid-flight.
	a.publish(func(s *State) {
		s.Loading = true
		s.Err = ""
	})

	user, session, err := a.client.SignInWithPassword(ctx, payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.attempts.fail(fingerprint)
		message := sanitizeErrorMessage(err.Error())
		a.publish(func(s *State) {
			s.Loading = false
			s.Err = message
		})
		a.emit(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"fingerprint": fingerprint,
			"error":       message,
		})
		// Never wrap the raw provider error; its text is what we just
		// sanitized away.
		return goerrors.New(message, goerrors.CategoryAuth).
			WithTextCode(textCodeBadCredentials).
			WithCode(goerrors.CodeUnauthorized)
	}

	a.attempts.clear(fingerprint)
	a.rememberIdentifier(ctx, payload)

	a.publish(func(s *State) {
		s.User = user
		s.Session = session
		s.Loading = false
		s.Err = ""
	})
	a.armTimer()

	userID := ""
	if user != nil {
		userID = user.ID
	}
	a.emit(ctx, ActivityEventLoginSuccess, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
		"fingerprint": fingerprint,
	})

	return nil
}

// SignOut clears local authentication state. Provider and storage failures
// are swallowed: sign-out is never allowed to leave local state
// authenticated. Safe to call repeatedly.
func (a *Authority) SignOut(ctx context.Context, reason string) {
	a.signOut(ctx, reason, ActivityEventSignOut)
}

func (a *Authority) signOut(ctx context.Context, reason string, event ActivityEventType) {
	a.cancelTimer()

	userID := ""
	if user := a.CurrentUser(); user != nil {
		userID = user.ID
	}

	if a.client != nil {
		if err := a.client.SignOut(ctx); err != nil {
			a.logger.Warn("provider sign out error: %v", err)
		}
	}

	if err := a.remember.Clear(ctx); err != nil {
		a.logger.Warn("clearing remembered identifier error: %v", err)
	}

	a.publish(func(s *State) {
		s.User = nil
		s.Session = nil
		s.Loading = false
		s.Err = reason
	})

	a.emit(ctx, event, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
		"reason": reason,
	})
}

// ValidateSession re-checks the held session: locally against its expiry
// timestamp, then remotely against the provider. Any failure forces a
// sign-out and returns false.
func (a *Authority) ValidateSession(ctx context.Context) bool {
	session := a.CurrentSession()
	if session == nil {
		return false
	}

	if session.Expired(a.clock.Now()) {
		a.SignOut(ctx, msgExpiredSession)
		return false
	}

	fresh, err := a.client.GetSession(ctx)
	if err != nil || fresh == nil {
		a.SignOut(ctx, msgInvalidSession)
		return false
	}

	return true
}

// RefreshSession exchanges the held refresh token for a fresh session.
// Failure forces a sign-out; success re-arms the idle timer.
func (a *Authority) RefreshSession(ctx context.Context) bool {
	user, session, err := a.client.RefreshSession(ctx)
	if err != nil {
		a.SignOut(ctx, msgRefreshFailed)
		return false
	}

	if session == nil {
		return false
	}

	a.publish(func(s *State) {
		s.User = user
		s.Session = session
		s.Err = ""
	})
	a.armTimer()

	userID := ""
	if user != nil {
		userID = user.ID
	}
	a.emit(ctx, ActivityEventSessionRefresh, ActorRef{ID: userID, Type: "user"}, userID, nil)

	return true
}

// ResetIdleTimer re-arms the idle countdown if and only if currently
// authenticated. Wire it to user-activity signals.
func (a *Authority) ResetIdleTimer() {
	if a.IsAuthenticated() {
		a.armTimer()
	}
}

// RememberedIdentifier returns the stored remember-me value, if any.
func (a *Authority) RememberedIdentifier(ctx context.Context) string {
	value, err := a.remember.Read(ctx)
	if err != nil {
		a.logger.Warn("reading remembered identifier error: %v", err)
		return ""
	}
	return value
}

// Close detaches from provider notifications and fires a best-effort
// sign-out. It does not wait for the provider call to finish; teardown must
// never block on it.
func (a *Authority) Close() {
	a.cancelTimer()

	a.mu.Lock()
	unsub := a.unsubClient
	a.unsubClient = nil
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	go a.SignOut(context.Background(), "")
}

// armTimer starts the idle countdown, cancelling any pending one so at most
// a single timeout can fire per authenticated period.
func (a *Authority) armTimer() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = a.clock.AfterFunc(a.sessionTimeout, a.idleTimeout)
	a.mu.Unlock()
}

func (a *Authority) cancelTimer() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
}

func (a *Authority) idleTimeout() {
	a.logger.Info("idle session timeout fired")
	a.signOut(context.Background(), msgIdleTimeout, ActivityEventSessionTimeout)
}

func (a *Authority) clientFingerprint() string {
	fingerprint, err := a.fingerprint()
	if err != nil || fingerprint == "" {
		a.logger.Warn("fingerprint derivation error, using shared bucket: %v", err)
		return unknownFingerprint
	}
	return fingerprint
}

func (a *Authority) rememberIdentifier(ctx context.Context, payload LoginPayload) {
	var err error
	if payload.GetRememberMe() {
		err = a.remember.Write(ctx, payload.GetIdentifier())
	} else {
		err = a.remember.Clear(ctx)
	}
	if err != nil {
		a.logger.Warn("remember store update error: %v", err)
	}
}

func (a *Authority) emit(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.sink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.clock.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}
