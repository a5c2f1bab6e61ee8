// Package auth owns the authentication state for the SK Enterprises
// management app: a single Authority mediates sign-in against the hosted
// identity provider, throttles brute-force attempts per client fingerprint,
// enforces an idle-session timeout, and publishes full state snapshots to
// subscribers. Route guards consume those snapshots to decide whether a
// request renders, waits, or redirects.
//
// The Authority is an explicitly constructed, dependency-injected object;
// there is no package-level singleton. Tests inject a fake Clock and a fake
// IdentityClient to drive every transition deterministically.
//
// State invariant: IsAuthenticated holds if and only if both the user record
// and the session token are present and no error is set. Every transition is
// applied atomically and delivered to subscribers as a copy, never as a
// partially updated view.
package auth
