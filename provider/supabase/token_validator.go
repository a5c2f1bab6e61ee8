package supabase

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	auth "github.com/terraworkdynamics/skenterprises"
)

// TokenValidator checks Supabase-issued access tokens against the project's
// JWKS endpoint. Useful for services that receive the access token directly
// instead of going through the identity client.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	logger auth.Logger
}

// NewTokenValidator fetches the JWKS and keeps it refreshed in the
// background. Call Close when done.
func NewTokenValidator(cfg Config, logger auth.Logger) (*TokenValidator, error) {
	if logger == nil {
		logger = auth.NewDefaultLogger()
	}

	url := cfg.jwksURL()
	if url == "" {
		return nil, fmt.Errorf("supabase: JWKS URL is required")
	}

	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("supabase: JWKS background refresh error: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: failed to fetch JWKS: %w", err)
	}

	return &TokenValidator{jwks: jwks, logger: logger}, nil
}

// Validate parses and verifies an access token, returning its claims.
func (v *TokenValidator) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrSessionExpired
		}
		return nil, fmt.Errorf("supabase: invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("supabase: invalid token claims")
	}

	return claims, nil
}

// Subject returns the user ID a validated token belongs to.
func (v *TokenValidator) Subject(claims jwt.MapClaims) string {
	sub, _ := claims["sub"].(string)
	return sub
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
