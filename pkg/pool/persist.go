package pool

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/storage"
)

// ExportState captures the pool's ledgers and selection pointer as a
// storage snapshot.
func (p *Pool) ExportState() *storage.PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := &storage.PoolState{
		SavedAt:      p.nowFunc(),
		CurrentIndex: p.current,
		Keys:         make([]storage.KeyState, len(p.usage)),
	}
	for i, u := range p.usage {
		state.Keys[i] = storage.KeyState{
			Index:         i,
			Used:          u.Used,
			Limit:         u.Limit,
			ResetAt:       u.ResetAt,
			Disabled:      u.Disabled,
			LastErrorKind: string(u.LastErrorKind),
		}
	}
	return state
}

// RestoreState applies a previously exported snapshot. Entries whose
// reset time has already passed belong to a finished quota day and are
// skipped; the corresponding ledgers keep their fresh state. Entries
// for indexes outside the configured key list are ignored.
func (p *Pool) RestoreState(state *storage.PoolState) {
	if state == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.nowFunc()
	restored := 0
	for _, ks := range state.Keys {
		if ks.Index < 0 || ks.Index >= len(p.usage) {
			continue
		}
		if !ks.ResetAt.After(now) {
			continue
		}
		u := p.usage[ks.Index]
		u.Used = ks.Used
		if ks.Limit > 0 {
			u.Limit = ks.Limit
		}
		u.ResetAt = ks.ResetAt
		u.Disabled = ks.Disabled
		u.LastErrorKind = quota.ErrorKind(ks.LastErrorKind)
		restored++
	}
	if state.CurrentIndex >= 0 && state.CurrentIndex < len(p.usage) {
		p.current = state.CurrentIndex
	}

	p.logger.Info("pool state restored",
		"saved_at", state.SavedAt,
		"restored_keys", restored,
		"skipped_keys", len(state.Keys)-restored)
}

// Persist saves the pool's current state to the given backend.
func (p *Pool) Persist(ctx context.Context, backend storage.Backend) error {
	if backend == nil {
		return nil
	}
	if err := backend.SaveSnapshot(ctx, p.ExportState()); err != nil {
		return fmt.Errorf("failed to persist pool state: %w", err)
	}
	return nil
}

// Restore loads the latest snapshot from the backend and applies it.
// A backend with no saved snapshot is not an error.
func (p *Pool) Restore(ctx context.Context, backend storage.Backend) error {
	if backend == nil {
		return nil
	}
	state, err := backend.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pool state: %w", err)
	}
	p.RestoreState(state)
	return nil
}
