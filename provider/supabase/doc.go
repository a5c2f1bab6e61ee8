// Package supabase implements the identity client against the Supabase
// GoTrue REST API, plus JWKS-based validation of the access tokens it
// issues.
package supabase
