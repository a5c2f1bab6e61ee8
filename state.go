package auth

// State is the authority's published snapshot. User and Session point at
// provider records; Err carries the last human-readable failure, empty when
// none. Loading is true only during bootstrap or an in-flight sign-in.
type State struct {
	User    *UserInfo     `json:"user"`
	Session *SessionToken `json:"session"`
	Loading bool          `json:"loading"`
	Err     string        `json:"err,omitempty"`
}

// IsAuthenticated reports the core invariant: user and session both present
// and no error recorded.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Session != nil && s.Err == ""
}

// ListenerFunc receives every state publication as a full snapshot.
type ListenerFunc func(State)

// Unsubscribe removes a previously registered listener. Safe to call more
// than once.
type Unsubscribe func()

// Subscribe registers fn for all future state publications. Delivery is
// synchronous; the listener set is copied before iteration so listeners may
// subscribe or unsubscribe during delivery.
func (a *Authority) Subscribe(fn ListenerFunc) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	a.mu.Lock()
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// CurrentState returns a copy of the latest published state.
func (a *Authority) CurrentState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// IsAuthenticated reports whether the latest published state is
// authenticated.
func (a *Authority) IsAuthenticated() bool {
	return a.CurrentState().IsAuthenticated()
}

// CurrentUser returns the authenticated user record, or nil.
func (a *Authority) CurrentUser() *UserInfo {
	return a.CurrentState().User
}

// CurrentSession returns the held session token, or nil.
func (a *Authority) CurrentSession() *SessionToken {
	return a.CurrentState().Session
}

// stateUpdate mutates the held state in place; fields left untouched keep
// their previous value, mirroring partial updates in the UI layer while the
// transition itself stays atomic.
type stateUpdate func(*State)

// publish applies the update under the lock and then delivers the resulting
// snapshot to a copy of the listener set.
func (a *Authority) publish(update stateUpdate) {
	a.mu.Lock()
	update(&a.state)
	snapshot := a.state
	fns := make([]ListenerFunc, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
