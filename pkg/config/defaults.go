package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultDailyLimit        = 10000
	DefaultWarningThreshold  = 0.90
	DefaultCriticalThreshold = 0.95
	DefaultMaxRetries        = 3
	DefaultTransientBackoff  = time.Second
	DefaultHistorySize       = 1000
	DefaultAlertCooldown     = 30 * time.Minute
	DefaultAlertRetention    = 24 * time.Hour
	DefaultAlertSchedule     = "@every 1m"
	DefaultStorageBackend    = "memory"
	DefaultSMTPPort          = 587
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultMetricsPath       = "/metrics"
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. It never
// overwrites a value the user has set.
func ApplyDefaults(cfg *Config) {
	if cfg.Credentials.DailyLimit == 0 {
		cfg.Credentials.DailyLimit = DefaultDailyLimit
	}
	if cfg.Credentials.WarningThreshold == 0 {
		cfg.Credentials.WarningThreshold = DefaultWarningThreshold
	}

	if cfg.Executor.MaxRetries == 0 {
		cfg.Executor.MaxRetries = DefaultMaxRetries
	}
	if cfg.Executor.TransientBackoff == 0 {
		cfg.Executor.TransientBackoff = DefaultTransientBackoff
	}

	if cfg.History.Size == 0 {
		cfg.History.Size = DefaultHistorySize
	}

	if cfg.Alerting.WarningThreshold == 0 {
		cfg.Alerting.WarningThreshold = DefaultWarningThreshold
	}
	if cfg.Alerting.CriticalThreshold == 0 {
		cfg.Alerting.CriticalThreshold = DefaultCriticalThreshold
	}
	if cfg.Alerting.Cooldown == 0 {
		cfg.Alerting.Cooldown = DefaultAlertCooldown
	}
	if cfg.Alerting.Retention == 0 {
		cfg.Alerting.Retention = DefaultAlertRetention
	}
	if cfg.Alerting.Schedule == "" {
		cfg.Alerting.Schedule = DefaultAlertSchedule
	}
	if cfg.Alerting.Email.Port == 0 {
		cfg.Alerting.Email.Port = DefaultSMTPPort
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
