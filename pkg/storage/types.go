package storage

import (
	"context"
	"time"
)

// Backend persists and restores pool usage snapshots.
// Implementations must be safe for concurrent use.
type Backend interface {
	// SaveSnapshot persists the state, replacing any previous snapshot.
	SaveSnapshot(ctx context.Context, state *PoolState) error

	// LoadSnapshot returns the latest snapshot, or nil if none exists.
	LoadSnapshot(ctx context.Context) (*PoolState, error)

	// Close releases backend resources. The backend must not be used
	// after Close.
	Close() error
}

// PoolState is a point-in-time snapshot of every credential ledger.
type PoolState struct {
	// SavedAt is when the snapshot was taken, UTC.
	SavedAt time.Time `json:"saved_at"`

	// CurrentIndex is the pool's selection pointer at snapshot time.
	CurrentIndex int `json:"current_index"`

	// Keys holds one entry per credential, in pool order.
	Keys []KeyState `json:"keys"`
}

// KeyState is the persisted ledger for one credential.
type KeyState struct {
	Index         int       `json:"index"`
	Used          int       `json:"used"`
	Limit         int       `json:"limit"`
	ResetAt       time.Time `json:"reset_at"`
	Disabled      bool      `json:"disabled"`
	LastErrorKind string    `json:"last_error_kind,omitempty"`
}
