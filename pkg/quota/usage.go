package quota

import (
	"time"
)

// DefaultDailyLimit is the daily quota ceiling applied when no override
// is configured. It matches the standard per-project allocation of the
// wrapped video platform API.
const DefaultDailyLimit = 10000

// DefaultWarningThreshold is the usage fraction at which a credential is
// considered to be approaching exhaustion.
const DefaultWarningThreshold = 0.9

// resetLocation is the reference timezone for the daily reset boundary.
// The upstream API resets quotas at midnight Pacific time.
var resetLocation = loadResetLocation()

func loadResetLocation() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// Hosts without tzdata fall back to a fixed offset. The boundary
		// drifts by an hour across DST transitions but stays daily.
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

// NextResetTime returns the next daily reset boundary after now,
// expressed in UTC.
func NextResetTime(now time.Time) time.Time {
	local := now.In(resetLocation)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, resetLocation).AddDate(0, 0, 1)
	return next.UTC()
}

// Usage is the quota ledger for a single credential.
//
// Usage carries no lock of its own; the owning pool serializes access.
// All timestamps are UTC.
type Usage struct {
	// Used is the number of quota units consumed since the last reset.
	Used int

	// Limit is the daily quota ceiling. A Limit <= 0 disables percentage
	// calculations but never causes a division error.
	Limit int

	// ResetAt is the next reset boundary. Used returns to zero the first
	// time the ledger is touched at or after this instant.
	ResetAt time.Time

	// Disabled marks a credential that must never be selected regardless
	// of remaining quota (set when the key is judged invalid upstream).
	Disabled bool

	// LastErrorKind is the most recent classified error recorded against
	// this credential, or KindNone.
	LastErrorKind ErrorKind

	// LastRequestTime is when the credential last carried a call,
	// successful or not.
	LastRequestTime time.Time

	// WarningThreshold is the usage fraction for IsWarning. Zero means
	// DefaultWarningThreshold.
	WarningThreshold float64
}

// NewUsage creates a ledger with the given daily limit and the reset
// boundary following now.
func NewUsage(limit int, now time.Time) *Usage {
	return &Usage{
		Limit:   limit,
		ResetAt: NextResetTime(now),
	}
}

// PercentUsed returns the usage percentage in the range [0, ...).
// A non-positive limit yields 0.
func (u *Usage) PercentUsed() float64 {
	if u.Limit <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Limit) * 100
}

// IsWarning reports whether usage has crossed the warning threshold
// without being exhausted yet.
func (u *Usage) IsWarning() bool {
	threshold := u.WarningThreshold
	if threshold == 0 {
		threshold = DefaultWarningThreshold
	}
	return u.PercentUsed() >= threshold*100 && !u.IsExceeded()
}

// IsExceeded reports whether the daily quota is spent.
func (u *Usage) IsExceeded() bool {
	return u.Used >= u.Limit
}

// Eligible reports whether the credential may be selected for a call.
func (u *Usage) Eligible() bool {
	return !u.Disabled && !u.IsExceeded()
}

// Record accounts one call against the ledger. Cost is charged only on
// success; failures update the error bookkeeping instead.
func (u *Usage) Record(cost int, success bool, kind ErrorKind, now time.Time) {
	if success {
		u.Used += cost
		u.LastErrorKind = KindNone
	} else if kind != KindNone {
		u.LastErrorKind = kind
	}
	u.LastRequestTime = now
}

// ResetIfDue applies the daily reset when now has passed the boundary.
// Used returns to zero atomically with advancing ResetAt. The disabled
// flag clears on reset unless the last error marked the key invalid:
// a bad credential does not become good again because a day passed.
// Returns true if a reset fired.
func (u *Usage) ResetIfDue(now time.Time) bool {
	if u.ResetAt.IsZero() || now.Before(u.ResetAt) {
		return false
	}
	u.Used = 0
	u.ResetAt = NextResetTime(now)
	if u.LastErrorKind != KindKeyInvalid {
		u.Disabled = false
	}
	return true
}
