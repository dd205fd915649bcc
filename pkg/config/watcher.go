package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a configuration file for changes and triggers
// reloads. It watches the file's directory rather than the file itself
// so editors that replace the file on save are still caught, and it
// debounces bursts of events into a single reload.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce *Debouncer

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

// DefaultDebounceInterval is how long the watcher waits after the last
// file event before triggering a reload.
const DefaultDebounceInterval = 100 * time.Millisecond

// NewFileWatcher creates a watcher for the configuration file at path.
func NewFileWatcher(path string, logger *slog.Logger) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watcher: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		path:     filepath.Clean(path),
		watcher:  watcher,
		logger:   logger.With("component", "config.watcher"),
		debounce: NewDebouncer(DefaultDebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, invoking onReload after each debounced change to the
// configuration file, until ctx is canceled or Stop is called. Reload
// errors are logged and watching continues.
func (fw *FileWatcher) Watch(ctx context.Context, onReload func() error) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("config watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		close(fw.doneCh)
	}()

	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	fw.logger.Info("configuration watcher started", "path", fw.path)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("configuration watcher stopped (context canceled)")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("configuration watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			fw.debounce.Trigger(func() {
				fw.logger.Info("configuration change detected", "op", event.Op.String())
				if err := onReload(); err != nil {
					fw.logger.Error("configuration reload failed", "error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("configuration watcher error", "error", err)
		}
	}
}

// Stop stops the watcher, waits for a running watch loop to exit, and
// releases the underlying fsnotify handle. Safe to call multiple times
// and after the loop has already exited via context cancellation.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() { close(fw.stopCh) })

	fw.mu.Lock()
	running := fw.running
	fw.mu.Unlock()
	if running {
		<-fw.doneCh
	}

	var err error
	fw.closeOnce.Do(func() {
		fw.debounce.Stop()
		if cerr := fw.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}

// Debouncer collapses bursts of triggers into one callback invocation
// after a quiet interval.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a Debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger schedules the callback after the quiet interval, replacing
// any pending invocation.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
		}

		d.mu.Lock()
		cb := d.callback
		d.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
