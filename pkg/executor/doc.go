// Package executor runs remote API calls against the credential pool
// with retry, failover, and quota-aware error handling.
//
// # Overview
//
// Execute wraps a single remote call. It selects a credential from the
// pool, invokes the caller's function outside any lock, and reacts to
// the outcome: success charges the endpoint's quota cost, a transient
// network failure is retried on the same key after a fixed backoff,
// and a quota or key error rotates the pool to the next credential
// before retrying. Unknown errors propagate immediately.
//
// Errors returned by Execute are *ExecError values wrapping a sentinel
// (ErrAllKeysExhausted, ErrDailyQuotaExceeded, ...) so callers can
// branch with errors.Is while still reading the classified kind and an
// operator-facing message from the struct.
//
// # Thread Safety
//
// An Executor is safe for concurrent use. Cost table updates are
// serialized internally; everything else delegates to the pool.
package executor
