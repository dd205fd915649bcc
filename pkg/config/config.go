package config

import (
	"strings"
	"time"
)

// Config is the root configuration for the orchestration layer.
type Config struct {
	// Credentials configures the API key pool.
	Credentials CredentialsConfig `yaml:"credentials"`

	// Executor configures retry behavior and endpoint costs.
	Executor ExecutorConfig `yaml:"executor"`

	// History configures call record retention.
	History HistoryConfig `yaml:"history"`

	// Alerting configures quota threshold alerts.
	Alerting AlertingConfig `yaml:"alerting"`

	// Storage configures pool state persistence.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CredentialsConfig configures the credential pool.
type CredentialsConfig struct {
	// Keys is a comma-separated list of API keys. Usually supplied via
	// the GANYMEDE_CREDENTIALS_KEYS environment variable rather than
	// the file.
	Keys string `yaml:"keys"`

	// DailyLimit is the per-key daily quota in units. Default: 10000.
	DailyLimit int `yaml:"daily_limit"`

	// WarningThreshold is the usage fraction at which a key is
	// considered in warning. Default: 0.9.
	WarningThreshold float64 `yaml:"warning_threshold"`
}

// ParseKeys splits the comma-separated key list, trimming whitespace
// and dropping empty entries.
func (c CredentialsConfig) ParseKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.Keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ExecutorConfig configures the call executor.
type ExecutorConfig struct {
	// MaxRetries is the attempt budget per call. Default: 3.
	MaxRetries int `yaml:"max_retries"`

	// TransientBackoff is the pause between retries of a transient
	// network failure. Default: 1s.
	TransientBackoff time.Duration `yaml:"transient_backoff"`

	// Costs maps endpoint names to their quota cost in units.
	// Unlisted endpoints cost 1 unit.
	Costs map[string]int `yaml:"costs"`
}

// HistoryConfig configures call record retention.
type HistoryConfig struct {
	// Size caps the in-memory call record ring. Default: 1000.
	Size int `yaml:"size"`

	// Archive configures the durable SQLite call archive.
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig configures the durable call archive.
type ArchiveConfig struct {
	// Enabled turns the archive on. Default: false.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. Required when enabled.
	Path string `yaml:"path"`
}

// AlertingConfig configures quota threshold alerting.
type AlertingConfig struct {
	// Enabled turns the alert sweeper on. Default: true.
	Enabled bool `yaml:"enabled"`

	// WarningThreshold is the usage fraction for warning alerts.
	// Default: 0.90.
	WarningThreshold float64 `yaml:"warning_threshold"`

	// CriticalThreshold is the usage fraction for critical alerts.
	// Default: 0.95.
	CriticalThreshold float64 `yaml:"critical_threshold"`

	// Cooldown suppresses repeat alerts per key and severity.
	// Default: 30m.
	Cooldown time.Duration `yaml:"cooldown"`

	// Retention is how long raised alerts are kept before sweeps
	// prune them. Default: 24h.
	Retention time.Duration `yaml:"retention"`

	// Schedule is the cron expression for alert sweeps.
	// Default: "@every 1m".
	Schedule string `yaml:"schedule"`

	// Email configures the SMTP alert sink.
	Email EmailConfig `yaml:"email"`

	// Slack configures the Slack webhook alert sink.
	Slack SlackConfig `yaml:"slack"`
}

// EmailConfig configures the SMTP alert sink.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// SlackConfig configures the Slack webhook alert sink.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// StorageConfig configures pool state persistence.
type StorageConfig struct {
	// Backend selects the persistence backend ("memory" or "sqlite").
	// Default: "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level. Default: "info".
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json".
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics exposure.
type MetricsConfig struct {
	// Enabled turns metric collection on. Default: false.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics handler.
	// Default: "/metrics".
	Path string `yaml:"path"`
}
