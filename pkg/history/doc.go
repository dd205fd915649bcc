// Package history records the calls carried by the credential pool.
//
// The primary structure is a bounded in-memory ring of CallRecords used
// for statistics and diagnostics; the oldest records are evicted once the
// cap is reached, bounding memory for long-running processes.
//
// An optional SQLite-backed Archive persists every record append-only for
// offline analysis. Archive writes are asynchronous and lossy under
// backpressure: a full write buffer drops records rather than blocking
// the call path.
package history
