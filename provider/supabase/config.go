package supabase

import (
	"net/http"
	"strings"
	"time"
)

// Placeholder values shipped in the example environment file. A deployment
// still carrying them counts as unconfigured.
const (
	PlaceholderURL     = "https://your-project-id.supabase.co"
	PlaceholderAnonKey = "your-supabase-anon-key-here"
)

// Config holds Supabase project credentials.
type Config struct {
	// URL is the project base URL (e.g. "https://abc123.supabase.co").
	URL string

	// AnonKey is the project's public API key.
	AnonKey string

	// JWKSUrl overrides the default JWKS endpoint used for token
	// validation (optional).
	// Default: "{URL}/auth/v1/.well-known/jwks.json".
	JWKSUrl string

	// HTTPClient overrides the client used for GoTrue calls (optional).
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is not set.
	// Default: 10 seconds.
	Timeout time.Duration
}

// IsConfigured reports whether real credentials are present. Empty values
// and the placeholder values both count as missing.
func (c Config) IsConfigured() bool {
	url := strings.TrimSpace(c.URL)
	key := strings.TrimSpace(c.AnonKey)

	if url == "" || key == "" {
		return false
	}

	return url != PlaceholderURL && key != PlaceholderAnonKey
}

func (c Config) baseURL() string {
	return strings.TrimSuffix(strings.TrimSpace(c.URL), "/")
}

func (c Config) jwksURL() string {
	if c.JWKSUrl != "" {
		return c.JWKSUrl
	}
	if c.baseURL() == "" {
		return ""
	}
	return c.baseURL() + "/auth/v1/.well-known/jwks.json"
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Timeout: timeout}
}
