package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite. Suitable for
// single-instance deployments that want usage counters to survive a
// restart within the same quota day.
type SQLiteBackend struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	saveStmt *sql.Stmt
	loadStmt *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite snapshot backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite snapshot backend with defaults.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite snapshot backend.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	backend := &SQLiteBackend{db: db}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pool_snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO pool_snapshots (id, state, saved_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			saved_at = excluded.saved_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT state FROM pool_snapshots WHERE id = 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	return nil
}

// SaveSnapshot persists the state, replacing any previous snapshot.
func (s *SQLiteBackend) SaveSnapshot(ctx context.Context, state *PoolState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal pool state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.saveStmt.ExecContext(ctx, string(payload), state.SavedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the latest snapshot, or nil if none exists.
func (s *SQLiteBackend) LoadSnapshot(ctx context.Context) (*PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.loadStmt.QueryRowContext(ctx).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	state := &PoolState{}
	if err := json.Unmarshal([]byte(payload), state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool state: %w", err)
	}
	return state, nil
}

// Close releases database resources. Close is idempotent.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.loadStmt != nil {
			s.loadStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}
