package auth

import (
	"context"
	"sync"
)

// RememberKey is the fixed name the remembered identifier is stored under.
const RememberKey = "rememberEmail"

// MemoryRememberStore keeps the remembered identifier in process memory.
// The repository package provides a persisted implementation.
type MemoryRememberStore struct {
	mu    sync.Mutex
	value string
	set   bool
}

var _ RememberStore = (*MemoryRememberStore)(nil)

func NewMemoryRememberStore() *MemoryRememberStore {
	return &MemoryRememberStore{}
}

func (s *MemoryRememberStore) Read(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", nil
	}
	return s.value, nil
}

func (s *MemoryRememberStore) Write(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = identifier
	s.set = true
	return nil
}

func (s *MemoryRememberStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	s.set = false
	return nil
}
