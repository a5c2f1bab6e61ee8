package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

// GuardConfig carries the route classification the guards operate on.
type GuardConfig struct {
	// LoginPath is where unauthenticated visitors are sent. Authenticated
	// visitors requesting it are bounced to DashboardPath.
	LoginPath string

	// DashboardPath is the landing page for authenticated visitors.
	DashboardPath string

	// ProtectedPrefixes lists path prefixes that require authentication.
	ProtectedPrefixes []string

	// RejectedRouteKey names the cookie holding the originally requested
	// path so the login flow can return the visitor there.
	RejectedRouteKey string
}

// DefaultProtectedPrefixes is the application's protected route table.
var DefaultProtectedPrefixes = []string{
	"/dashboard",
	"/register",
	"/payment",
	"/lucky-draw",
	"/due-list",
	"/monthwise-due",
	"/laptop",
	"/inverter",
	"/camera",
}

// DefaultGuardConfig returns the stock route classification.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		LoginPath:         "/login",
		DashboardPath:     "/dashboard",
		ProtectedPrefixes: DefaultProtectedPrefixes,
		RejectedRouteKey:  "rejected_route",
	}
}

const (
	msgConfigRequired   = "Configuration required: identity provider credentials are missing. Set the provider URL and API key environment variables and restart."
	msgVerifyingSession = "Verifying authentication..."
)

// Guard builds routing middleware driven by the authority's published state.
// Public applies app-wide; Protected wraps individual route groups.
type Guard struct {
	authority *Authority
	cfg       GuardConfig
	logger    Logger
}

func NewGuard(authority *Authority, cfg GuardConfig, logger Logger) *Guard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}

	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/dashboard"
	}

	if len(cfg.ProtectedPrefixes) == 0 {
		cfg.ProtectedPrefixes = DefaultProtectedPrefixes
	}

	if cfg.RejectedRouteKey == "" {
		cfg.RejectedRouteKey = "rejected_route"
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &Guard{
		authority: authority,
		cfg:       cfg,
		logger:    logger,
	}
}

// Public is the app-wide guard. It bounces authenticated visitors off the
// login page, sends unauthenticated visitors on protected paths to login,
// and defers while authentication state is still resolving. When the
// identity provider is unconfigured every request passes through so the
// operator can reach the configuration notice.
func (g *Guard) Public() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if !g.authority.Configured() {
				return next(ctx)
			}

			state := g.authority.CurrentState()

			if state.Loading {
				return ctx.NoContent(http.StatusNoContent)
			}

			path := ctx.Path()

			if state.IsAuthenticated() && path == g.cfg.LoginPath {
				return ctx.Redirect(g.cfg.DashboardPath, g.redirectStatus(ctx))
			}

			if !state.IsAuthenticated() && g.isProtected(path) {
				g.setRedirect(ctx)
				return ctx.Redirect(g.loginRedirect(path), g.redirectStatus(ctx))
			}

			return next(ctx)
		}
	}
}

// Protected wraps routes that must never render unauthenticated. Unlike
// Public, an unconfigured provider is surfaced here as a hard notice rather
// than a pass-through.
func (g *Guard) Protected() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if !g.authority.Configured() {
				return ctx.Status(http.StatusServiceUnavailable).SendString(msgConfigRequired)
			}

			state := g.authority.CurrentState()

			if state.Loading {
				return ctx.Status(http.StatusOK).SendString(msgVerifyingSession)
			}

			if !state.IsAuthenticated() {
				g.setRedirect(ctx)
				return ctx.Redirect(g.loginRedirect(ctx.Path()), g.redirectStatus(ctx))
			}

			// Unreachable while IsAuthenticated requires an empty Err;
			// kept as a fallback should that invariant ever loosen.
			if state.Err != "" {
				return ctx.Status(http.StatusForbidden).SendString(state.Err)
			}

			return next(ctx)
		}
	}
}

// LoginPath returns the configured login route.
func (g *Guard) LoginPath() string {
	return g.cfg.LoginPath
}

// DashboardPath returns the configured landing route.
func (g *Guard) DashboardPath() string {
	return g.cfg.DashboardPath
}

// GetRedirect pops the stored origin path, falling back to def.
func (g *Guard) GetRedirect(ctx router.Context, def string) string {
	r := ctx.Cookies(g.cfg.RejectedRouteKey)
	if r == "" {
		return def
	}
	g.cookieDel(ctx, g.cfg.RejectedRouteKey)
	return r
}

// loginRedirect carries the rejected path as an explicit query value in
// addition to the cookie, so the login page can show where the visitor
// was headed even if cookies are blocked.
func (g *Guard) loginRedirect(path string) string {
	return g.cfg.LoginPath + "?from=" + url.QueryEscape(path)
}

func (g *Guard) isProtected(path string) bool {
	for _, prefix := range g.cfg.ProtectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// redirectStatus picks 302 for safe methods and 303 otherwise so a POST to a
// guarded route does not get replayed against the login page.
func (g *Guard) redirectStatus(ctx router.Context) int {
	switch ctx.Method() {
	case http.MethodGet, http.MethodHead:
		return http.StatusFound
	default:
		return http.StatusSeeOther
	}
}

func (g *Guard) setRedirect(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     g.cfg.RejectedRouteKey,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
	})
}

func (g *Guard) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
	})
}
