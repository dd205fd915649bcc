package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the snapshot in process memory. It is the default
// backend and exists so callers can wire persistence unconditionally;
// state still dies with the process.
type MemoryBackend struct {
	mu    sync.RWMutex
	state *PoolState
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// SaveSnapshot stores a copy of the state.
func (m *MemoryBackend) SaveSnapshot(_ context.Context, state *PoolState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == nil {
		m.state = nil
		return nil
	}

	copied := *state
	copied.Keys = make([]KeyState, len(state.Keys))
	copy(copied.Keys, state.Keys)
	m.state = &copied
	return nil
}

// LoadSnapshot returns a copy of the stored state, or nil.
func (m *MemoryBackend) LoadSnapshot(_ context.Context) (*PoolState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil, nil
	}

	copied := *m.state
	copied.Keys = make([]KeyState, len(m.state.Keys))
	copy(copied.Keys, m.state.Keys)
	return &copied, nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
