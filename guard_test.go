package auth_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	auth "github.com/terraworkdynamics/skenterprises"
)

func newGuardFixture(configured bool, session *auth.SessionToken) (*auth.Guard, *auth.Authority, *fakeIdentity) {
	clock := newFakeClock()
	client := newFakeIdentity()
	client.configured = configured
	client.session = session

	authority := newTestAuthority(client, clock)
	guard := auth.NewGuard(authority, auth.DefaultGuardConfig(), nil)
	return guard, authority, client
}

func runGuard(t *testing.T, mw router.MiddlewareFunc, ctx router.Context) (bool, error) {
	t.Helper()
	nextCalled := false
	err := mw(func(router.Context) error {
		nextCalled = true
		return nil
	})(ctx)
	return nextCalled, err
}

func TestPublicGuardPassesThroughWhenUnconfigured(t *testing.T) {
	guard, authority, _ := newGuardFixture(false, nil)
	authority.Bootstrap(context.Background())

	ctx := &MockContext{}

	nextCalled, err := runGuard(t, guard.Public(), ctx)
	require.NoError(t, err)
	assert.True(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestPublicGuardDefersWhileLoading(t *testing.T) {
	guard, _, _ := newGuardFixture(true, nil)
	// No Bootstrap: state is still resolving.

	ctx := &MockContext{}
	ctx.On("NoContent", http.StatusNoContent).Return(nil)

	nextCalled, err := runGuard(t, guard.Public(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled, "no redirect and no handler while loading")
	ctx.AssertExpectations(t)
}

func TestPublicGuardRedirectsAuthenticatedOffLogin(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, testSession(time.Now().Add(time.Hour).Unix()))
	authority.Bootstrap(context.Background())
	require.True(t, authority.IsAuthenticated())

	ctx := &MockContext{}
	ctx.On("Path").Return("/login")
	ctx.On("Method").Return(http.MethodGet)
	ctx.On("Redirect", "/dashboard", []int{http.StatusFound}).Return(nil)

	nextCalled, err := runGuard(t, guard.Public(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestPublicGuardRedirectsUnauthenticatedOffProtectedPath(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, nil)
	authority.Bootstrap(context.Background())

	ctx := &MockContext{}
	ctx.On("Path").Return("/payment/new")
	ctx.On("Method").Return(http.MethodGet)
	ctx.On("OriginalURL").Return("/payment/new?customer=42")
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "rejected_route" && c.Value == "/payment/new?customer=42"
	})).Return()
	ctx.On("Redirect", "/login?from=%2Fpayment%2Fnew", []int{http.StatusFound}).Return(nil)

	nextCalled, err := runGuard(t, guard.Public(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestPublicGuardAllowsPublicPaths(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, nil)
	authority.Bootstrap(context.Background())

	for _, path := range []string{"/", "/login", "/about", "/laptops"} {
		ctx := &MockContext{}
		ctx.On("Path").Return(path)

		nextCalled, err := runGuard(t, guard.Public(), ctx)
		require.NoError(t, err)
		assert.True(t, nextCalled, "path %s should pass", path)
	}
}

func TestPublicGuardPrefixMatching(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, nil)
	authority.Bootstrap(context.Background())

	cases := []struct {
		path      string
		protected bool
	}{
		{"/laptop", true},
		{"/laptop/123", true},
		{"/laptops", false},
		{"/monthwise-due", true},
		{"/", false},
	}

	for _, tc := range cases {
		ctx := &MockContext{}
		ctx.On("Path").Return(tc.path)
		if tc.protected {
			ctx.On("Method").Return(http.MethodGet)
			ctx.On("OriginalURL").Return(tc.path)
			ctx.On("Cookie", mock.Anything).Return()
			ctx.On("Redirect", "/login?from="+url.QueryEscape(tc.path), []int{http.StatusFound}).Return(nil)
		}

		nextCalled, err := runGuard(t, guard.Public(), ctx)
		require.NoError(t, err)
		assert.Equal(t, !tc.protected, nextCalled, "path %s", tc.path)
	}
}

func TestProtectedGuardSurfacesMissingConfiguration(t *testing.T) {
	guard, authority, _ := newGuardFixture(false, nil)
	authority.Bootstrap(context.Background())

	ctx := &MockContext{}
	ctx.On("Status", http.StatusServiceUnavailable).Return(ctx)
	ctx.On("SendString", mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Configuration required")
	})).Return(nil)

	nextCalled, err := runGuard(t, guard.Protected(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestProtectedGuardShowsProgressWhileLoading(t *testing.T) {
	guard, _, _ := newGuardFixture(true, nil)

	ctx := &MockContext{}
	ctx.On("Status", http.StatusOK).Return(ctx)
	ctx.On("SendString", "Verifying authentication...").Return(nil)

	nextCalled, err := runGuard(t, guard.Protected(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestProtectedGuardRedirectsErrorStateToLogin(t *testing.T) {
	clock := newFakeClock()
	client := newFakeIdentity()
	client.session = testSession(clock.Now().Add(-time.Minute).Unix())

	authority := newTestAuthority(client, clock)
	authority.Bootstrap(context.Background())
	require.NotEmpty(t, authority.CurrentState().Err)

	guard := auth.NewGuard(authority, auth.DefaultGuardConfig(), nil)

	ctx := &MockContext{}
	ctx.On("Path").Return("/dashboard")
	ctx.On("Method").Return(http.MethodGet)
	ctx.On("OriginalURL").Return("/dashboard")
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/login?from=%2Fdashboard", []int{http.StatusFound}).Return(nil)

	nextCalled, err := runGuard(t, guard.Protected(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled, "an error state redirects rather than rendering")
	ctx.AssertExpectations(t)
}

func TestProtectedGuardRedirectsUnauthenticated(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, nil)
	authority.Bootstrap(context.Background())

	ctx := &MockContext{}
	ctx.On("Path").Return("/payment")
	ctx.On("Method").Return(http.MethodPost)
	ctx.On("OriginalURL").Return("/payment")
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/login?from=%2Fpayment", []int{http.StatusSeeOther}).Return(nil)

	nextCalled, err := runGuard(t, guard.Protected(), ctx)
	require.NoError(t, err)
	assert.False(t, nextCalled, "POST redirects with 303 so the body is not replayed")
	ctx.AssertExpectations(t)
}

func TestProtectedGuardAdmitsAuthenticated(t *testing.T) {
	guard, authority, _ := newGuardFixture(true, testSession(time.Now().Add(time.Hour).Unix()))
	authority.Bootstrap(context.Background())
	require.True(t, authority.IsAuthenticated())

	ctx := &MockContext{}

	nextCalled, err := runGuard(t, guard.Protected(), ctx)
	require.NoError(t, err)
	assert.True(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestGuardGetRedirect(t *testing.T) {
	guard, _, _ := newGuardFixture(true, nil)

	t.Run("pops the stored path", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("Cookies", "rejected_route").Return("/due-list")
		ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "rejected_route" && c.Value == ""
		})).Return()

		assert.Equal(t, "/due-list", guard.GetRedirect(ctx, "/dashboard"))
		ctx.AssertExpectations(t)
	})

	t.Run("falls back to the default", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("Cookies", "rejected_route").Return("")

		assert.Equal(t, "/dashboard", guard.GetRedirect(ctx, "/dashboard"))
		ctx.AssertExpectations(t)
	})
}
