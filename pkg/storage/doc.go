// Package storage provides optional persistence for pool usage snapshots.
//
// The orchestrator is in-memory by design; quota counters restart at zero
// with the process. For deployments that want counters to survive a
// restart within the same quota day, a Backend can be attached to the
// pool: the pool exports a PoolState snapshot after accounting changes
// and restores the latest snapshot at startup, discarding counters whose
// reset boundary has already passed.
//
// Two backends ship: MemoryBackend (the default, effectively a no-op
// beyond tests) and SQLiteBackend for durable single-instance storage.
package storage
