package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid values. It returns the
// first problem found.
func Validate(cfg *Config) error {
	if len(cfg.Credentials.ParseKeys()) == 0 {
		return fmt.Errorf("credentials: at least one API key is required (set credentials.keys or GANYMEDE_CREDENTIALS_KEYS)")
	}
	if cfg.Credentials.DailyLimit <= 0 {
		return fmt.Errorf("credentials: daily_limit must be positive, got %d", cfg.Credentials.DailyLimit)
	}
	if t := cfg.Credentials.WarningThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("credentials: warning_threshold must be in (0, 1], got %v", t)
	}

	if cfg.Executor.MaxRetries <= 0 {
		return fmt.Errorf("executor: max_retries must be positive, got %d", cfg.Executor.MaxRetries)
	}
	if cfg.Executor.TransientBackoff < 0 {
		return fmt.Errorf("executor: transient_backoff must not be negative")
	}
	for endpoint, cost := range cfg.Executor.Costs {
		if cost <= 0 {
			return fmt.Errorf("executor: cost for endpoint %q must be positive, got %d", endpoint, cost)
		}
	}

	if cfg.History.Size <= 0 {
		return fmt.Errorf("history: size must be positive, got %d", cfg.History.Size)
	}
	if cfg.History.Archive.Enabled && cfg.History.Archive.Path == "" {
		return fmt.Errorf("history: archive.path is required when the archive is enabled")
	}

	if err := validateAlerting(&cfg.Alerting); err != nil {
		return err
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage: sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q (expected memory or sqlite)", cfg.Storage.Backend)
	}

	return nil
}

func validateAlerting(cfg *AlertingConfig) error {
	if w := cfg.WarningThreshold; w <= 0 || w > 1 {
		return fmt.Errorf("alerting: warning_threshold must be in (0, 1], got %v", w)
	}
	if c := cfg.CriticalThreshold; c <= 0 || c > 1 {
		return fmt.Errorf("alerting: critical_threshold must be in (0, 1], got %v", c)
	}
	if cfg.CriticalThreshold < cfg.WarningThreshold {
		return fmt.Errorf("alerting: critical_threshold %v must not be below warning_threshold %v",
			cfg.CriticalThreshold, cfg.WarningThreshold)
	}
	if cfg.Cooldown < 0 {
		return fmt.Errorf("alerting: cooldown must not be negative")
	}
	if cfg.Retention > 0 && cfg.Retention < cfg.Cooldown {
		return fmt.Errorf("alerting: retention (%v) must not be shorter than cooldown (%v)",
			cfg.Retention, cfg.Cooldown)
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("alerting: invalid schedule %q: %w", cfg.Schedule, err)
		}
	}

	if cfg.Email.Enabled {
		if cfg.Email.Host == "" {
			return fmt.Errorf("alerting: email.host is required when email alerts are enabled")
		}
		if cfg.Email.From == "" {
			return fmt.Errorf("alerting: email.from is required when email alerts are enabled")
		}
		if len(cfg.Email.To) == 0 {
			return fmt.Errorf("alerting: email.to requires at least one recipient")
		}
	}
	if cfg.Slack.Enabled && cfg.Slack.WebhookURL == "" {
		return fmt.Errorf("alerting: slack.webhook_url is required when slack alerts are enabled")
	}

	return nil
}
