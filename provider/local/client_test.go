package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/terraworkdynamics/skenterprises"
	"github.com/terraworkdynamics/skenterprises/provider/local"
)

func seededClient(t *testing.T, opts ...local.Option) *local.Client {
	t.Helper()

	hash, err := local.HashPassword("s3cret")
	require.NoError(t, err)

	client := local.NewClient("test-signing-key", opts...)
	client.AddOperator(local.Operator{
		ID:           "op-1",
		Email:        "Owner@SKenterprises.example",
		Role:         "admin",
		PasswordHash: hash,
	})
	return client
}

func TestSignInWithPassword(t *testing.T) {
	client := seededClient(t)

	// Identifier matching is case-insensitive.
	user, session, err := client.SignInWithPassword(context.Background(), "owner@skenterprises.example", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, "op-1", user.ID)
	assert.Equal(t, "admin", user.Role)
	assert.NotEmpty(t, session.AccessToken)
	assert.Greater(t, session.ExpiresAt, time.Now().Unix())
}

func TestSignInWithBadPassword(t *testing.T) {
	client := seededClient(t)

	_, _, err := client.SignInWithPassword(context.Background(), "owner@skenterprises.example", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = client.SignInWithPassword(context.Background(), "nobody@skenterprises.example", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestGetSessionDropsExpired(t *testing.T) {
	current := time.Now()
	client := seededClient(t,
		local.WithTokenTTL(time.Minute),
		local.WithNowFunc(func() time.Time { return current }),
	)

	_, _, err := client.SignInWithPassword(context.Background(), "owner@skenterprises.example", "s3cret")
	require.NoError(t, err)

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)

	current = current.Add(2 * time.Minute)

	session, err = client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRefreshSession(t *testing.T) {
	client := seededClient(t)

	_, first, err := client.SignInWithPassword(context.Background(), "owner@skenterprises.example", "s3cret")
	require.NoError(t, err)

	user, fresh, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "op-1", user.ID)
	assert.NotEqual(t, first.RefreshToken, fresh.RefreshToken)
}

func TestRefreshWithoutSession(t *testing.T) {
	client := seededClient(t)

	_, _, err := client.RefreshSession(context.Background())
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestSignOutEmitsEvent(t *testing.T) {
	client := seededClient(t)

	var events []auth.AuthChangeEvent
	client.OnAuthStateChange(func(event auth.AuthChangeEvent, _ *auth.SessionToken) {
		events = append(events, event)
	})

	_, _, err := client.SignInWithPassword(context.Background(), "owner@skenterprises.example", "s3cret")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(context.Background()))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	assert.Equal(t, []auth.AuthChangeEvent{auth.AuthEventSignedIn, auth.AuthEventSignedOut}, events)
}
