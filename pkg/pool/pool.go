package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/history"
	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// Config configures a Pool.
type Config struct {
	// Keys is the ordered list of API keys. At least one is required.
	Keys []string

	// DailyLimit is the per-key daily quota in units.
	// Default: quota.DefaultDailyLimit.
	DailyLimit int

	// WarningThreshold is the usage fraction at which a key is reported
	// as in warning. Default: quota.DefaultWarningThreshold.
	WarningThreshold float64

	// HistorySize caps the in-memory call record ring.
	// Default: history.DefaultRingSize.
	HistorySize int

	// Archive, when non-nil, receives a copy of every call record for
	// durable retention. Enqueueing never blocks the pool.
	Archive *history.Archive

	// Metrics, when non-nil, receives pool counters and gauges.
	Metrics *Metrics

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger

	// NowFunc overrides the clock. Default: time.Now.
	NowFunc func() time.Time
}

// Pool coordinates credential selection, rotation, and quota accounting
// for a fixed set of API keys. All methods are safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	keys      []string
	usage     []*quota.Usage
	current   int
	history   *history.Ring
	archive   *history.Archive
	metrics   *Metrics
	logger    *slog.Logger
	sanitizer *logging.Sanitizer
	nowFunc   func() time.Time
}

// New creates a Pool from the given configuration. It returns an error
// if no keys are configured or any key is empty.
func New(cfg Config) (*Pool, error) {
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("pool: at least one API key is required")
	}
	for i, k := range cfg.Keys {
		if k == "" {
			return nil, fmt.Errorf("pool: key %d is empty", i)
		}
	}

	limit := cfg.DailyLimit
	if limit <= 0 {
		limit = quota.DefaultDailyLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFunc := cfg.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}

	now := nowFunc()
	usage := make([]*quota.Usage, len(cfg.Keys))
	for i := range cfg.Keys {
		u := quota.NewUsage(limit, now)
		if cfg.WarningThreshold > 0 {
			u.WarningThreshold = cfg.WarningThreshold
		}
		usage[i] = u
	}

	p := &Pool{
		keys:      append([]string(nil), cfg.Keys...),
		usage:     usage,
		history:   history.NewRing(cfg.HistorySize),
		archive:   cfg.Archive,
		metrics:   cfg.Metrics,
		logger:    logger.With("component", "pool"),
		sanitizer: logging.NewSanitizer(cfg.Keys),
		nowFunc:   nowFunc,
	}

	p.logger.Info("credential pool initialized",
		"keys", len(p.keys),
		"daily_limit", limit,
		"next_reset", usage[0].ResetAt)
	return p, nil
}

// Len returns the number of configured keys.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Current returns a usable credential, applying any due daily resets
// first. If the currently selected key is ineligible it scans forward
// circularly and moves the selection to the first eligible key. The
// second return value is false when every key is exhausted or disabled.
func (p *Pool) Current() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *Pool) currentLocked() (Credential, bool) {
	p.resetDueLocked()

	for off := 0; off < len(p.keys); off++ {
		idx := (p.current + off) % len(p.keys)
		if !p.usage[idx].Eligible() {
			continue
		}
		if idx != p.current {
			p.logger.Info("switched to eligible credential",
				"from", p.current,
				"to", idx,
				"key", logging.MaskKey(p.keys[idx]))
			p.current = idx
		}
		return Credential{Index: idx, Key: p.keys[idx]}, true
	}

	p.logger.Warn("no eligible credential available",
		"keys", len(p.keys),
		"earliest_reset", p.earliestResetLocked())
	if p.metrics != nil {
		p.metrics.RecordExhaustion()
	}
	return Credential{}, false
}

// Rotate abandons the current credential and advances the selection to
// the next eligible key in circular order. The abandoned key's standing
// is logged so operators can see why failover happened. The second
// return value is false when no other key is eligible.
func (p *Pool) Rotate() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	abandoned := p.usage[p.current]
	p.logger.Info("rotating away from credential",
		"index", p.current,
		"key", logging.MaskKey(p.keys[p.current]),
		"used", abandoned.Used,
		"limit", abandoned.Limit,
		"exceeded", abandoned.IsExceeded(),
		"disabled", abandoned.Disabled)
	if p.metrics != nil {
		p.metrics.RecordRotation()
	}

	for off := 1; off <= len(p.keys); off++ {
		idx := (p.current + off) % len(p.keys)
		if !p.usage[idx].Eligible() {
			continue
		}
		p.current = idx
		return Credential{Index: idx, Key: p.keys[idx]}, true
	}

	p.logger.Warn("rotation found no eligible credential",
		"keys", len(p.keys),
		"earliest_reset", p.earliestResetLocked())
	if p.metrics != nil {
		p.metrics.RecordExhaustion()
	}
	return Credential{}, false
}

// RecordCall records the outcome of a remote call made with the key at
// index. Successful calls charge cost units against the key's daily
// quota; failed calls are recorded but never charged. Out-of-range
// indexes are ignored.
func (p *Pool) RecordCall(index int, endpoint string, cost int, success bool, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recordCallLocked(index, endpoint, cost, success, quota.KindNone, errMsg)
}

func (p *Pool) recordCallLocked(index int, endpoint string, cost int, success bool, kind quota.ErrorKind, errMsg string) {
	if index < 0 || index >= len(p.usage) {
		return
	}
	now := p.nowFunc()
	u := p.usage[index]
	wasWarning := u.IsWarning() || u.IsExceeded()

	u.Record(cost, success, kind, now)

	// Remote error text can echo the request URL, key included.
	rec := history.CallRecord{
		Endpoint:     endpoint,
		Cost:         cost,
		Timestamp:    now,
		KeyIndex:     index,
		Success:      success,
		ErrorMessage: p.sanitizer.Sanitize(errMsg),
	}
	p.history.Append(rec)
	if p.archive != nil {
		p.archive.Enqueue(rec)
	}

	if p.metrics != nil {
		p.metrics.RecordCall(endpoint, success)
		p.metrics.UpdateUsage(index, u.Used, u.PercentUsed())
	}

	if !wasWarning && (u.IsWarning() || u.IsExceeded()) {
		p.logger.Warn("credential crossed quota warning threshold",
			"index", index,
			"used", u.Used,
			"limit", u.Limit,
			"percent", u.PercentUsed(),
			"reset_at", u.ResetAt)
	}
}

// ClassifyAndHandle classifies a remote error's text and applies the
// matching quota side effect to the key at index: daily exhaustion
// marks the key's quota fully used, an invalid-key error disables the
// key until operator intervention, and a rate limit is recorded without
// penalty. The failed call is recorded against the key with zero cost.
// It returns the classified kind and an operator-facing message.
func (p *Pool) ClassifyAndHandle(index int, errText, endpoint string) (quota.ErrorKind, string) {
	kind := quota.Classify(errText)

	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.usage) {
		return kind, userMessage(kind, nil)
	}
	u := p.usage[index]

	switch kind {
	case quota.KindDailyQuotaExceeded:
		u.Used = u.Limit
		p.logger.Warn("daily quota exhausted for credential",
			"index", index,
			"key", logging.MaskKey(p.keys[index]),
			"reset_at", u.ResetAt)
	case quota.KindKeyInvalid:
		u.Disabled = true
		p.logger.Error("credential rejected by remote API, disabling",
			"index", index,
			"key", logging.MaskKey(p.keys[index]))
	case quota.KindRateLimitExceeded:
		p.logger.Warn("rate limit reported for credential",
			"index", index,
			"key", logging.MaskKey(p.keys[index]))
	}

	p.recordCallLocked(index, endpoint, 0, false, kind, errText)
	if p.metrics != nil {
		p.metrics.RecordClassifiedError(kind)
	}
	return kind, userMessage(kind, u)
}

// StatusSnapshot returns a consistent view of every key's ledger plus
// the selection pointer, after applying any due daily resets.
func (p *Pool) StatusSnapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetDueLocked()
	now := p.nowFunc()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	snap := Snapshot{
		TakenAt:         now,
		TotalKeys:       len(p.keys),
		CurrentIndex:    p.current,
		TotalCallsToday: p.history.CountSince(dayStart),
		Keys:            make([]KeyStatus, len(p.keys)),
	}
	for i, u := range p.usage {
		snap.Keys[i] = KeyStatus{
			Index:           i,
			Used:            u.Used,
			Limit:           u.Limit,
			PercentUsed:     u.PercentUsed(),
			IsWarning:       u.IsWarning(),
			IsExceeded:      u.IsExceeded(),
			Disabled:        u.Disabled,
			LastErrorKind:   u.LastErrorKind,
			ResetAt:         u.ResetAt,
			LastRequestTime: u.LastRequestTime,
		}
	}
	return snap
}

// Statistics aggregates the in-memory call history over the trailing
// window. A zero window covers all retained records.
func (p *Pool) Statistics(window time.Duration) *history.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Stats(window, p.nowFunc())
}

// EarliestReset returns the soonest daily reset time across all keys.
// It is the earliest moment at which an exhausted pool may recover.
func (p *Pool) EarliestReset() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.earliestResetLocked()
}

// ObserveCallDuration feeds the call latency histogram when metrics are
// enabled. Safe to call with metrics disabled.
func (p *Pool) ObserveCallDuration(endpoint string, d time.Duration) {
	if p.metrics != nil {
		p.metrics.ObserveCallDuration(endpoint, d.Seconds())
	}
}

func (p *Pool) earliestResetLocked() time.Time {
	earliest := p.usage[0].ResetAt
	for _, u := range p.usage[1:] {
		if u.ResetAt.Before(earliest) {
			earliest = u.ResetAt
		}
	}
	return earliest
}

func (p *Pool) resetDueLocked() {
	now := p.nowFunc()
	for i, u := range p.usage {
		if u.ResetIfDue(now) {
			p.logger.Info("daily quota reset applied",
				"index", i,
				"key", logging.MaskKey(p.keys[i]),
				"next_reset", u.ResetAt,
				"disabled", u.Disabled)
			if p.metrics != nil {
				p.metrics.UpdateUsage(i, u.Used, u.PercentUsed())
			}
		}
	}
}

// userMessage renders an operator-facing explanation for a classified
// remote error. Messages never include key material.
func userMessage(kind quota.ErrorKind, u *quota.Usage) string {
	switch kind {
	case quota.KindDailyQuotaExceeded:
		if u != nil {
			return fmt.Sprintf("The daily API quota for this key is exhausted (%d/%d units). It resets at %s.",
				u.Used, u.Limit, u.ResetAt.Format(time.RFC3339))
		}
		return "The daily API quota for this key is exhausted. Please try again after the daily reset."
	case quota.KindRateLimitExceeded:
		return "The API rate limit was reached. Please wait a moment and try again."
	case quota.KindKeyInvalid:
		return "The configured API key was rejected by the remote service. Please verify the key with an administrator."
	default:
		return "The API request failed with an unexpected error. Please try again later."
	}
}
