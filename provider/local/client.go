// Package local is a self-contained identity client for development and
// tests: operators live in memory, passwords are bcrypt hashed, and access
// tokens are HS256 JWTs minted locally.
package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	auth "github.com/terraworkdynamics/skenterprises"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

// Operator is a local account that can sign in.
type Operator struct {
	ID           string
	Email        string
	Phone        string
	Role         string
	PasswordHash string
}

// Client implements auth.IdentityClient against an in-memory operator set.
type Client struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time

	mu        sync.Mutex
	operators map[string]Operator
	session   *auth.SessionToken
	listeners map[int]auth.AuthChangeFunc
	nextID    int
}

// Option customizes Client construction.
type Option func(*Client)

// WithTokenTTL overrides the minted token lifetime. Default: 1 hour.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNowFunc overrides the time source, used by tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer overrides the iss claim. Default: "skenterprises-local".
func WithIssuer(issuer string) Option {
	return func(c *Client) {
		if issuer != "" {
			c.issuer = issuer
		}
	}
}

// NewClient builds a local identity client. The signing key must be
// non-empty; there is no placeholder state here, a local client is always
// configured.
func NewClient(signingKey string, opts ...Option) *Client {
	c := &Client{
		signingKey: []byte(signingKey),
		issuer:     "skenterprises-local",
		ttl:        time.Hour,
		now:        time.Now,
		operators:  map[string]Operator{},
		listeners:  map[int]auth.AuthChangeFunc{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

var _ auth.IdentityClient = (*Client)(nil)

// HashPassword generates a bcrypt hash for seeding operators.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// AddOperator registers an account keyed by its lowercased email.
func (c *Client) AddOperator(op Operator) {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}

	c.mu.Lock()
	c.operators[strings.ToLower(op.Email)] = op
	c.mu.Unlock()
}

// IsConfigured implements auth.IdentityClient.
func (c *Client) IsConfigured() bool {
	return len(c.signingKey) > 0
}

// GetSession returns the held session, dropping it when expired.
func (c *Client) GetSession(ctx context.Context) (*auth.SessionToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.Expired(c.now()) {
		c.session = nil
	}

	return c.session, nil
}

// SignInWithPassword verifies the password and mints a fresh session.
func (c *Client) SignInWithPassword(ctx context.Context, identifier, secret string) (*auth.UserInfo, *auth.SessionToken, error) {
	c.mu.Lock()
	op, ok := c.operators[strings.ToLower(strings.TrimSpace(identifier))]
	c.mu.Unlock()

	if !ok {
		return nil, nil, auth.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(secret)); err != nil {
		return nil, nil, auth.ErrInvalidCredentials
	}

	session, err := c.mintSession(op)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.emit(auth.AuthEventSignedIn, session)

	return session.User, session, nil
}

// SignOut drops the held session.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	c.emit(auth.AuthEventSignedOut, nil)
	return nil
}

// RefreshSession mints a fresh session for the currently held operator.
func (c *Client) RefreshSession(ctx context.Context) (*auth.UserInfo, *auth.SessionToken, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.User == nil {
		return nil, nil, auth.ErrSessionExpired
	}

	c.mu.Lock()
	var op *Operator
	for _, candidate := range c.operators {
		if candidate.ID == session.User.ID {
			op = &candidate
			break
		}
	}
	c.mu.Unlock()

	if op == nil {
		return nil, nil, auth.ErrSessionExpired
	}

	fresh, err := c.mintSession(*op)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.session = fresh
	c.mu.Unlock()

	c.emit(auth.AuthEventTokenRefreshed, fresh)

	return fresh.User, fresh, nil
}

// OnAuthStateChange implements auth.IdentityClient.
func (c *Client) OnAuthStateChange(fn auth.AuthChangeFunc) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(event auth.AuthChangeEvent, session *auth.SessionToken) {
	c.mu.Lock()
	fns := make([]auth.AuthChangeFunc, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn(event, session)
		}
	}
}

func (c *Client) mintSession(op Operator) (*auth.SessionToken, error) {
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   op.ID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "local: token signing failed")
	}

	return &auth.SessionToken{
		AccessToken:  signed,
		RefreshToken: uuid.New().String(),
		TokenType:    "bearer",
		ExpiresAt:    expiresAt.Unix(),
		User: &auth.UserInfo{
			ID:    op.ID,
			Email: op.Email,
			Phone: op.Phone,
			Role:  op.Role,
		},
	}, nil
}
