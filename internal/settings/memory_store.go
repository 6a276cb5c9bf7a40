package settings

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory settings store for demo mode and tests.
// It starts populated with defaults.
type MemoryStore struct {
	mu       sync.RWMutex
	settings *Settings
}

// NewMemoryStore creates an in-memory settings store holding the defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: Defaults()}
}

func (s *MemoryStore) Get(_ context.Context) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := *s.settings
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	s.settings = &cp
	return nil
}

var _ Store = (*MemoryStore)(nil)
