package alerting

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/pool"
)

const (
	// DefaultWarningThreshold is the usage fraction that raises a
	// warning alert.
	DefaultWarningThreshold = 0.90

	// DefaultCriticalThreshold is the usage fraction that raises a
	// critical alert.
	DefaultCriticalThreshold = 0.95

	// DefaultCooldown is how long repeat alerts for the same key and
	// severity are suppressed.
	DefaultCooldown = 30 * time.Minute

	// maxRecentEvents caps Summary.Recent.
	maxRecentEvents = 10
)

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	// WarningThreshold is the usage fraction for warning alerts.
	// Default: DefaultWarningThreshold.
	WarningThreshold float64

	// CriticalThreshold is the usage fraction for critical alerts.
	// Default: DefaultCriticalThreshold.
	CriticalThreshold float64

	// Cooldown suppresses repeat alerts per key and severity.
	// Default: DefaultCooldown.
	Cooldown time.Duration

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger

	// Metrics receives raised events when set. Default: nil (disabled).
	Metrics *Metrics
}

// dedupKey identifies an alert stream for cooldown tracking. Severity
// is part of the key so a warning-to-critical escalation is never
// suppressed by the earlier warning.
type dedupKey struct {
	keyIndex int
	severity Severity
}

// Evaluator turns pool snapshots into threshold alerts with
// per-key-and-severity deduplication.
type Evaluator struct {
	warning  float64
	critical float64
	cooldown time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	mu       sync.Mutex
	lastSent map[dedupKey]time.Time
	raised   []Event
}

// NewEvaluator creates an Evaluator with the given configuration.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	warning := cfg.WarningThreshold
	if warning <= 0 || warning > 1 {
		warning = DefaultWarningThreshold
	}
	critical := cfg.CriticalThreshold
	if critical <= 0 || critical > 1 {
		critical = DefaultCriticalThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Evaluator{
		warning:  warning,
		critical: critical,
		cooldown: cooldown,
		logger:   logger.With("component", "alerting.evaluator"),
		metrics:  cfg.Metrics,
		lastSent: make(map[dedupKey]time.Time),
	}
}

// Check inspects a pool snapshot and returns the alerts it raises.
// Each key contributes at most one event per call, at the highest
// severity its usage reaches. Events suppressed by the cooldown are
// not returned.
func (ev *Evaluator) Check(snap pool.Snapshot, now time.Time) []Event {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	var events []Event
	for _, ks := range snap.Keys {
		severity, ok := ev.severityFor(ks.PercentUsed / 100)
		if !ok {
			continue
		}

		key := dedupKey{keyIndex: ks.Index, severity: severity}
		if last, sent := ev.lastSent[key]; sent && now.Sub(last) < ev.cooldown {
			continue
		}
		ev.lastSent[key] = now

		event := Event{
			ID:          uuid.New().String(),
			Severity:    severity,
			KeyIndex:    ks.Index,
			Used:        ks.Used,
			Limit:       ks.Limit,
			PercentUsed: ks.PercentUsed,
			ResetAt:     ks.ResetAt,
			Timestamp:   now,
			Message: fmt.Sprintf("API key %d has used %d of %d daily quota units (%.1f%%). Quota resets at %s.",
				ks.Index, ks.Used, ks.Limit, ks.PercentUsed, ks.ResetAt.UTC().Format(time.RFC3339)),
		}
		events = append(events, event)
		ev.raised = append(ev.raised, event)
		if ev.metrics != nil {
			ev.metrics.RecordEvent(severity)
		}

		ev.logger.Warn("quota alert raised",
			"event_id", event.ID,
			"severity", severity,
			"key_index", ks.Index,
			"percent_used", ks.PercentUsed)
	}
	return events
}

// severityFor maps a usage fraction to an alert severity.
func (ev *Evaluator) severityFor(fraction float64) (Severity, bool) {
	switch {
	case fraction >= ev.critical:
		return SeverityCritical, true
	case fraction >= ev.warning:
		return SeverityWarning, true
	default:
		return "", false
	}
}

// Summary aggregates the alerts raised within the trailing window. A
// zero window covers all retained alerts.
func (ev *Evaluator) Summary(window time.Duration, now time.Time) Summary {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	cutoff := time.Time{}
	if window > 0 {
		cutoff = now.Add(-window)
	}

	s := Summary{Window: window}
	seen := make(map[int]bool)
	for _, e := range ev.raised {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		s.Total++
		switch e.Severity {
		case SeverityCritical:
			s.Criticals++
		default:
			s.Warnings++
		}
		if e.Timestamp.After(s.LastEvent) {
			s.LastEvent = e.Timestamp
		}
		if !seen[e.KeyIndex] {
			seen[e.KeyIndex] = true
			s.AffectedKeys = append(s.AffectedKeys, e.KeyIndex)
		}
		s.Recent = append(s.Recent, e)
		if len(s.Recent) > maxRecentEvents {
			s.Recent = s.Recent[1:]
		}
	}
	sort.Ints(s.AffectedKeys)
	return s
}

// Prune drops retained alerts and cooldown entries older than the
// cutoff. Call it periodically to bound memory on long-lived pools.
func (ev *Evaluator) Prune(olderThan time.Time) int {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	kept := ev.raised[:0]
	for _, e := range ev.raised {
		if !e.Timestamp.Before(olderThan) {
			kept = append(kept, e)
		}
	}
	pruned := len(ev.raised) - len(kept)
	ev.raised = kept

	for k, sent := range ev.lastSent {
		if sent.Before(olderThan) {
			delete(ev.lastSent, k)
		}
	}
	return pruned
}
