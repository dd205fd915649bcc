package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path. It applies default values and validates the result. Use
// LoadConfigWithEnvOverrides to also honor environment variables.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention GANYMEDE_SECTION_FIELD (e.g. GANYMEDE_CREDENTIALS_KEYS)
// and always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies GANYMEDE_SECTION_FIELD environment
// variables to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Credentials. GANYMEDE_API_KEYS is a short alias for the full
	// section form.
	if val := os.Getenv("GANYMEDE_API_KEYS"); val != "" {
		cfg.Credentials.Keys = val
	}
	if val := os.Getenv("GANYMEDE_CREDENTIALS_KEYS"); val != "" {
		cfg.Credentials.Keys = val
	}
	if val := os.Getenv("GANYMEDE_CREDENTIALS_DAILY_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Credentials.DailyLimit = i
		}
	}
	if val := os.Getenv("GANYMEDE_CREDENTIALS_WARNING_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Credentials.WarningThreshold = f
		}
	}

	// Executor
	if val := os.Getenv("GANYMEDE_EXECUTOR_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Executor.MaxRetries = i
		}
	}
	if val := os.Getenv("GANYMEDE_EXECUTOR_TRANSIENT_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Executor.TransientBackoff = d
		}
	}

	// History
	if val := os.Getenv("GANYMEDE_HISTORY_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.Size = i
		}
	}
	if val := os.Getenv("GANYMEDE_HISTORY_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Archive.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_HISTORY_ARCHIVE_PATH"); val != "" {
		cfg.History.Archive.Path = val
	}

	// Alerting
	if val := os.Getenv("GANYMEDE_ALERTING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Alerting.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_ALERTING_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Alerting.Cooldown = d
		}
	}
	if val := os.Getenv("GANYMEDE_ALERTING_SCHEDULE"); val != "" {
		cfg.Alerting.Schedule = val
	}
	if val := os.Getenv("GANYMEDE_ALERTING_EMAIL_HOST"); val != "" {
		cfg.Alerting.Email.Host = val
	}
	if val := os.Getenv("GANYMEDE_ALERTING_EMAIL_USERNAME"); val != "" {
		cfg.Alerting.Email.Username = val
	}
	if val := os.Getenv("GANYMEDE_ALERTING_EMAIL_PASSWORD"); val != "" {
		cfg.Alerting.Email.Password = val
	}
	if val := os.Getenv("GANYMEDE_ALERTING_EMAIL_TO"); val != "" {
		var to []string
		for _, addr := range strings.Split(val, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
		cfg.Alerting.Email.To = to
	}
	if val := os.Getenv("GANYMEDE_ALERTING_SLACK_WEBHOOK_URL"); val != "" {
		cfg.Alerting.Slack.WebhookURL = val
	}
	if val := os.Getenv("GANYMEDE_ALERTING_SLACK_CHANNEL"); val != "" {
		cfg.Alerting.Slack.Channel = val
	}

	// Storage
	if val := os.Getenv("GANYMEDE_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("GANYMEDE_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLitePath = val
	}

	// Telemetry
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
