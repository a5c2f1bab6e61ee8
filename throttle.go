package auth

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
)

// attemptRecord tracks consecutive sign-in failures for one fingerprint.
type attemptRecord struct {
	Count       int
	LastAttempt time.Time
}

// throttle is the in-memory brute-force table. Records live only for the
// process lifetime and are cleared on successful login or lockout expiry.
type throttle struct {
	mu      sync.Mutex
	records map[string]attemptRecord
	max     int
	lockout time.Duration
	clock   Clock
}

func newThrottle(max int, lockout time.Duration, clock Clock) *throttle {
	return &throttle{
		records: make(map[string]attemptRecord),
		max:     max,
		lockout: lockout,
		clock:   clock,
	}
}

// remaining returns how long the fingerprint stays locked out, or zero when
// sign-in may proceed. Stale records are discarded on the way through.
func (t *throttle) remaining(fingerprint string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[fingerprint]
	if !ok {
		return 0
	}

	elapsed := t.clock.Now().Sub(rec.LastAttempt)
	if rec.Count >= t.max && elapsed < t.lockout {
		return t.lockout - elapsed
	}

	if elapsed >= t.lockout {
		delete(t.records, fingerprint)
	}

	return 0
}

func (t *throttle) fail(fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[fingerprint]
	rec.Count++
	rec.LastAttempt = t.clock.Now()
	t.records[fingerprint] = rec
}

func (t *throttle) clear(fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, fingerprint)
}

// FingerprintFunc derives the throttling bucket key for the calling client.
type FingerprintFunc func() (string, error)

// deviceFingerprint is the default FingerprintFunc: a weak, spoofable hash of
// host attributes, preserved from the original behavior. It buckets per
// device, not per account; see DESIGN.md for the open question on replacing
// it with a per-account or per-IP key.
func deviceFingerprint() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}

	id, err := hashid.NewUUID(host + "|" + runtime.GOOS + "|" + runtime.GOARCH)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}
