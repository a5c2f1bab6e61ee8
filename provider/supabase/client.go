package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	auth "github.com/terraworkdynamics/skenterprises"
)

// Client talks to the Supabase GoTrue API and implements
// auth.IdentityClient. The current session is held in memory; change
// listeners are notified synchronously after every transition.
type Client struct {
	config Config
	http   *http.Client
	logger auth.Logger

	mu        sync.Mutex
	session   *auth.SessionToken
	listeners map[int]auth.AuthChangeFunc
	nextID    int
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

func WithLogger(logger auth.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a GoTrue client. An unconfigured Config is allowed; the
// resulting client reports IsConfigured false and rejects every call.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		config:    cfg,
		http:      cfg.httpClient(),
		logger:    auth.NewDefaultLogger(),
		listeners: map[int]auth.AuthChangeFunc{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

var _ auth.IdentityClient = (*Client)(nil)

// IsConfigured implements auth.IdentityClient.
func (c *Client) IsConfigured() bool {
	return c.config.IsConfigured()
}

// GetSession returns the held session after re-verifying its access token
// with the provider. A rejected token clears the held session and returns
// nil without error; the caller decides what that means.
func (c *Client) GetSession(ctx context.Context) (*auth.SessionToken, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}

	user, err := c.fetchUser(ctx, session.AccessToken)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Code == goerrors.CodeUnauthorized {
			c.logger.Debug("supabase: held session rejected, clearing")
			c.mu.Lock()
			c.session = nil
			c.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}

	session.User = user
	return session, nil
}

// SignInWithPassword implements the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, identifier, secret string) (*auth.UserInfo, *auth.SessionToken, error) {
	if err := c.requireConfig(); err != nil {
		return nil, nil, err
	}

	body := map[string]string{
		"email":    identifier,
		"password": secret,
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", body, "", &resp); err != nil {
		return nil, nil, err
	}

	session := resp.toSession()
	user := session.User

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.emit(auth.AuthEventSignedIn, session)

	return user, session, nil
}

// SignOut revokes the held session. Revocation errors are returned, but the
// local session is dropped regardless.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.requireConfig(); err != nil {
		return err
	}

	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	var err error
	if session != nil {
		err = c.post(ctx, "/auth/v1/logout", nil, session.AccessToken, nil)
	}

	c.emit(auth.AuthEventSignedOut, nil)
	return err
}

// RefreshSession exchanges the held refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context) (*auth.UserInfo, *auth.SessionToken, error) {
	if err := c.requireConfig(); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.RefreshToken == "" {
		return nil, nil, auth.ErrSessionExpired
	}

	body := map[string]string{
		"refresh_token": session.RefreshToken,
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", body, "", &resp); err != nil {
		return nil, nil, err
	}

	fresh := resp.toSession()

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

func (c *Client) requireConfig() error {
	if !c.config.IsConfigured() {
		return auth.ErrNotConfigured
	}
	return nil
}

func (c *Client) fetchUser(ctx context.Context, accessToken string) (*auth.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.baseURL()+"/auth/v1/user", nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "supabase: build request")
	}
	c.setHeaders(req, accessToken)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "supabase: user fetch failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, decodeError(res)
	}

	var user userRecord
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "supabase: decode user")
	}

	return user.toUserInfo(), nil
}

func (c *Client) post(ctx context.Context, path string, body any, accessToken string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "supabase: encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.baseURL()+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "supabase: build request")
	}
	c.setHeaders(req, accessToken)

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "supabase: request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "supabase: decode response")
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.config.AnonKey)
	req.Header.Set("Content-Type", "application/json")

	bearer := c.config.AnonKey
	if accessToken != "" {
		bearer = accessToken
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
}

// errorResponse covers the shapes GoTrue uses across versions.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func decodeError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))

	var parsed errorResponse
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.text()
	if message == "" {
		message = fmt.Sprintf("supabase: unexpected status %d", res.StatusCode)
	}

	category := goerrors.CategoryOperation
	code := goerrors.CodeInternal
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusBadRequest ||
		res.StatusCode == http.StatusForbidden {
		category = goerrors.CategoryAuth
		code = goerrors.CodeUnauthorized
	}

	return goerrors.New(message, category).
		WithCode(code).
		WithMetadata(map[string]any{
			"status": res.StatusCode,
		})
}

// tokenResponse is the GoTrue token grant payload.
type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         userRecord `json:"user"`
}

func (r tokenResponse) toSession() *auth.SessionToken {
	return &auth.SessionToken{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    r.expiresAt(),
		User:         r.User.toUserInfo(),
	}
}

// expiresAt falls back to the access token's exp claim when the grant
// payload omits expires_at. The claim is read unverified; the token was
// just issued over TLS by the provider itself.
func (r tokenResponse) expiresAt() int64 {
	if r.ExpiresAt > 0 {
		return r.ExpiresAt
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(r.AccessToken, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}

// userRecord is the GoTrue user payload.
type userRecord struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userRecord) toUserInfo() *auth.UserInfo {
	if u.ID == "" {
		return nil
	}
	return &auth.UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		Metadata: u.UserMetadata,
	}
}
