// Package pool manages an ordered set of API credentials with
// per-credential daily quota accounting and automatic failover.
//
// # Overview
//
// The Pool owns one quota.Usage ledger per configured key plus the
// current-selection pointer. Selection is lazy about resets: every read
// first applies any due daily reset, so no background timer is needed.
// When the current credential is disabled or exhausted, selection scans
// forward circularly for the first eligible key.
//
// The pool is the single piece of shared mutable state in the
// orchestration layer. All bookkeeping (selection, rotation, accounting,
// error handling) is serialized under one mutex; the remote call itself
// is never made under the lock.
//
// # Usage
//
//	p, err := pool.New(pool.Config{
//	    Keys:       []string{"key-a", "key-b", "key-c"},
//	    DailyLimit: 10000,
//	})
//	if err != nil {
//	    return err
//	}
//
//	cred, ok := p.Current()
//	if !ok {
//	    return executor.ErrAllKeysExhausted
//	}
//	// ... call the remote API with cred.Key, unlocked ...
//	p.RecordCall(cred.Index, "search.list", 100, true, "")
package pool
