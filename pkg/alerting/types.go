package alerting

import (
	"fmt"
	"time"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	// SeverityWarning marks usage past the warning threshold.
	SeverityWarning Severity = "warning"
	// SeverityCritical marks usage past the critical threshold.
	SeverityCritical Severity = "critical"
)

// Event is a single quota alert.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Severity is the alert level.
	Severity Severity `json:"severity"`

	// KeyIndex is the affected credential's position in the pool.
	KeyIndex int `json:"key_index"`

	// Used and Limit describe the key's quota standing.
	Used  int `json:"used"`
	Limit int `json:"limit"`

	// PercentUsed is the usage percentage (0-100).
	PercentUsed float64 `json:"percent_used"`

	// ResetAt is when the key's daily quota resets.
	ResetAt time.Time `json:"reset_at"`

	// Timestamp is when the alert was raised.
	Timestamp time.Time `json:"timestamp"`

	// Message is a human-readable account of the alert.
	Message string `json:"message"`
}

// Subject renders a short one-line description for notification titles.
func (e Event) Subject() string {
	return fmt.Sprintf("[%s] API key %d at %.1f%% of daily quota",
		e.Severity, e.KeyIndex, e.PercentUsed)
}

// Summary aggregates alert activity over a trailing window.
type Summary struct {
	Window    time.Duration `json:"window"`
	Total     int           `json:"total"`
	Warnings  int           `json:"warnings"`
	Criticals int           `json:"criticals"`
	LastEvent time.Time     `json:"last_event,omitempty"`

	// AffectedKeys lists the distinct key indexes that alerted,
	// ascending.
	AffectedKeys []int `json:"affected_keys,omitempty"`

	// Recent holds the most recent events in the window, oldest
	// first, capped to keep summaries small.
	Recent []Event `json:"recent,omitempty"`
}
