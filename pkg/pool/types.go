package pool

import (
	"time"

	"mercator-hq/ganymede/pkg/quota"
)

// Credential is a usable API key handed out by the pool. Index is the
// key's stable position in the configured key list and is the handle
// callers pass back to RecordCall and ClassifyAndHandle.
type Credential struct {
	Index int
	Key   string
}

// KeyStatus is the point-in-time view of a single credential's ledger.
type KeyStatus struct {
	Index           int             `json:"index"`
	Used            int             `json:"used"`
	Limit           int             `json:"limit"`
	PercentUsed     float64         `json:"percent_used"`
	IsWarning       bool            `json:"is_warning"`
	IsExceeded      bool            `json:"is_exceeded"`
	Disabled        bool            `json:"disabled"`
	LastErrorKind   quota.ErrorKind `json:"last_error_kind,omitempty"`
	ResetAt         time.Time       `json:"reset_at"`
	LastRequestTime time.Time       `json:"last_request_time,omitempty"`
}

// Snapshot is a consistent view of the whole pool, taken under the pool
// lock after applying any due daily resets. It is a value copy; holding
// one does not block the pool.
type Snapshot struct {
	TakenAt         time.Time   `json:"taken_at"`
	TotalKeys       int         `json:"total_keys"`
	CurrentIndex    int         `json:"current_index"`
	TotalCallsToday int         `json:"total_calls_today"`
	Keys            []KeyStatus `json:"keys"`
}
