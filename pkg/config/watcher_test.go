package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Debouncer Tests
// ============================================================================

func TestDebouncer_CollapsesBurst(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected burst collapsed to 1 call, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("Expected no calls after Stop, got %d", got)
	}
}

// ============================================================================
// File Watcher Tests
// ============================================================================

func TestFileWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("credentials:\n  keys: key-a\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	fw, err := NewFileWatcher(path, testLogger())
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		fw.Watch(ctx, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the watch loop time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("credentials:\n  keys: key-b\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("Expected reload after config write")
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Failed to stop watcher: %v", err)
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	fw, err := NewFileWatcher(path, testLogger())
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	var reloads atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		fw.Watch(ctx, func() error {
			reloads.Add(1)
			return nil
		})
	}()

	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(other, []byte("noise"), 0o644); err != nil {
		t.Fatalf("Failed to write unrelated file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("Expected no reloads for unrelated file, got %d", got)
	}

	fw.Stop()
}

func TestFileWatcher_StopAfterContextCancelClosesHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	fw, err := NewFileWatcher(path, testLogger())
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan struct{})
	go func() {
		fw.Watch(ctx, func() error { return nil })
		close(watchDone)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-watchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Failed to stop watcher: %v", err)
	}

	// The fsnotify handle must be released even though the loop had
	// already exited on its own.
	select {
	case _, ok := <-fw.watcher.Events:
		if ok {
			t.Error("Expected events channel closed after Stop")
		}
	case <-time.After(time.Second):
		t.Error("Expected events channel closed after Stop, still open")
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Expected repeated Stop to be a no-op, got %v", err)
	}
}

func TestNewFileWatcher_RequiresPath(t *testing.T) {
	if _, err := NewFileWatcher("", testLogger()); err == nil {
		t.Error("Expected error for empty path")
	}
}
