package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[uuid.UUID]*Profile)}
}

// Load returns a copy of the stored profile.
func (m *MemoryStore) Load(_ context.Context, id uuid.UUID) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// Save stores a copy of p.
func (m *MemoryStore) Save(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p.Clone()
	return nil
}
