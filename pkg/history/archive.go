package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Archive persists call records append-only to SQLite.
//
// Writes are asynchronous: Enqueue buffers the record and a background
// writer drains the buffer. A full buffer drops the record and counts
// the drop, so a slow disk never blocks the call path.
type Archive struct {
	db      *sql.DB
	queue   chan CallRecord
	dropped atomic.Int64
	logger  *slog.Logger

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// ArchiveConfig configures the call-record archive.
type ArchiveConfig struct {
	// Path is the SQLite database file path.
	Path string

	// BufferSize is the async write buffer capacity. Default: 1000.
	BufferSize int

	// BusyTimeout is how long SQLite waits for locks. Default: 5s.
	BusyTimeout time.Duration
}

// NewArchive opens (creating if needed) a call-record archive and starts
// its background writer.
func NewArchive(cfg ArchiveConfig) (*Archive, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	a := &Archive{
		db:     db,
		queue:  make(chan CallRecord, cfg.BufferSize),
		logger: slog.Default().With("component", "history.archive"),
		stopCh: make(chan struct{}),
	}

	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	if err := a.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare archive statements: %w", err)
	}

	a.wg.Add(1)
	go a.runWriter()

	return a, nil
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS call_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		endpoint TEXT NOT NULL,
		cost INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		key_index INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_call_records_timestamp ON call_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_call_records_endpoint ON call_records(endpoint);
	`

	_, err := a.db.Exec(schema)
	return err
}

func (a *Archive) prepareStatements() error {
	var err error

	a.insertStmt, err = a.db.Prepare(`
		INSERT INTO call_records (endpoint, cost, timestamp, key_index, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	a.pruneStmt, err = a.db.Prepare(`
		DELETE FROM call_records WHERE timestamp < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Enqueue buffers a record for archival. Never blocks; a full buffer
// drops the record.
func (a *Archive) Enqueue(rec CallRecord) {
	select {
	case a.queue <- rec:
	default:
		a.dropped.Add(1)
	}
}

// runWriter drains the queue until Close.
func (a *Archive) runWriter() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopCh:
			// Drain what is already buffered before exiting.
			for {
				select {
				case rec := <-a.queue:
					a.write(rec)
				default:
					return
				}
			}
		case rec := <-a.queue:
			a.write(rec)
		}
	}
}

func (a *Archive) write(rec CallRecord) {
	success := 0
	if rec.Success {
		success = 1
	}
	_, err := a.insertStmt.Exec(
		rec.Endpoint,
		rec.Cost,
		rec.Timestamp.Unix(),
		rec.KeyIndex,
		success,
		rec.ErrorMessage,
	)
	if err != nil {
		a.logger.Error("failed to archive call record",
			"endpoint", rec.Endpoint,
			"error", err,
		)
	}
}

// Count returns the number of archived records.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_records`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived records: %w", err)
	}
	return n, nil
}

// Prune deletes records older than the cutoff and returns how many were
// removed.
func (a *Archive) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := a.pruneStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Dropped returns the number of records lost to backpressure.
func (a *Archive) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops the writer, flushes buffered records, and closes the
// database. Close is idempotent.
func (a *Archive) Close() error {
	var closeErr error

	a.closeOnce.Do(func() {
		close(a.stopCh)
		a.wg.Wait()

		if a.insertStmt != nil {
			a.insertStmt.Close()
		}
		if a.pruneStmt != nil {
			a.pruneStmt.Close()
		}
		if a.db != nil {
			_, _ = a.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = a.db.Close()
		}
	})

	return closeErr
}
