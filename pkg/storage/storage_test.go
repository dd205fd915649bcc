package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func sampleState() *PoolState {
	return &PoolState{
		SavedAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		CurrentIndex: 1,
		Keys: []KeyState{
			{Index: 0, Used: 9800, Limit: 10000, ResetAt: time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)},
			{Index: 1, Used: 120, Limit: 10000, ResetAt: time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)},
			{Index: 2, Used: 0, Limit: 10000, Disabled: true, LastErrorKind: "api_key_invalid"},
		},
	}
}

// runBackendTests exercises the Backend contract against any implementation.
func runBackendTests(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	// Empty backend loads nil.
	state, err := backend.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot on empty backend failed: %v", err)
	}
	if state != nil {
		t.Fatal("Expected nil snapshot from empty backend")
	}

	// Save then load round-trips.
	saved := sampleState()
	if err := backend.SaveSnapshot(ctx, saved); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := backend.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected snapshot, got nil")
	}
	if loaded.CurrentIndex != 1 {
		t.Errorf("Expected current index 1, got %d", loaded.CurrentIndex)
	}
	if len(loaded.Keys) != 3 {
		t.Fatalf("Expected 3 key states, got %d", len(loaded.Keys))
	}
	if loaded.Keys[0].Used != 9800 {
		t.Errorf("Expected key 0 used=9800, got %d", loaded.Keys[0].Used)
	}
	if !loaded.Keys[2].Disabled || loaded.Keys[2].LastErrorKind != "api_key_invalid" {
		t.Errorf("Key 2 state did not round-trip: %+v", loaded.Keys[2])
	}

	// A second save replaces the first.
	saved.Keys[1].Used = 500
	if err := backend.SaveSnapshot(ctx, saved); err != nil {
		t.Fatalf("Second SaveSnapshot failed: %v", err)
	}
	loaded, err = backend.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot after replace failed: %v", err)
	}
	if loaded.Keys[1].Used != 500 {
		t.Errorf("Expected replaced snapshot, key 1 used=%d", loaded.Keys[1].Used)
	}
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()
	runBackendTests(t, backend)
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer backend.Close()
	runBackendTests(t, backend)
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	if err := backend.SaveSnapshot(ctx, sampleState()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to reopen backend: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot after reopen failed: %v", err)
	}
	if loaded == nil || len(loaded.Keys) != 3 {
		t.Fatalf("Snapshot did not survive reopen: %+v", loaded)
	}
}

func TestSQLiteBackend_EmptyPathRejected(t *testing.T) {
	if _, err := NewSQLiteBackend(""); err == nil {
		t.Error("Expected error for empty db path")
	}
}

func TestMemoryBackend_CopiesState(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	state := sampleState()
	if err := backend.SaveSnapshot(ctx, state); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Mutating the caller's state must not leak into the stored copy.
	state.Keys[0].Used = 1

	loaded, _ := backend.LoadSnapshot(ctx)
	if loaded.Keys[0].Used != 9800 {
		t.Errorf("Backend stored a reference, not a copy: used=%d", loaded.Keys[0].Used)
	}
}
