// Package quota implements per-credential daily quota accounting.
//
// # Overview
//
// The quota package provides the usage ledger that backs the credential
// pool. Each configured API key gets one Usage record tracking:
//
//   - Quota units consumed today and the daily ceiling
//   - The next reset boundary (Pacific midnight, stored in UTC)
//   - A disabled flag for credentials judged invalid upstream
//   - The last classified error kind recorded against the credential
//
// Resets are strictly lazy: callers pass the current time into ResetIfDue
// before reading or writing, so no background timer races with accounting.
//
// # Error Classification
//
// The wrapped API reports failures as human-readable strings rather than
// structured codes, so Classify maps raw error text onto a fixed ErrorKind
// set by case-insensitive substring matching. The matching table is kept
// deliberately faithful to the observed upstream message formats; see
// classify.go for the exact rules.
//
// # Thread Safety
//
// Usage is a plain record with no internal locking. The owning pool
// serializes all access under its own mutex.
package quota
