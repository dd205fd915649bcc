package main

import (
	"fmt"
	"log/slog"

	"mercator-hq/ganymede/pkg/alerting"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/executor"
	"mercator-hq/ganymede/pkg/history"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/storage"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// app bundles the wired components built from a configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pool.Pool
	executor *executor.Executor
	archive  *history.Archive
	backend  storage.Backend
	sweeper  *alerting.Sweeper
}

// buildApp constructs the full stack from a configuration file.
func buildApp(path string) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	var archive *history.Archive
	if cfg.History.Archive.Enabled {
		archive, err = history.NewArchive(history.ArchiveConfig{Path: cfg.History.Archive.Path})
		if err != nil {
			return nil, fmt.Errorf("failed to open call archive: %w", err)
		}
	}

	var metrics *pool.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics = pool.NewMetrics()
	}

	p, err := pool.New(pool.Config{
		Keys:             cfg.Credentials.ParseKeys(),
		DailyLimit:       cfg.Credentials.DailyLimit,
		WarningThreshold: cfg.Credentials.WarningThreshold,
		HistorySize:      cfg.History.Size,
		Archive:          archive,
		Metrics:          metrics,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	exec, err := executor.New(executor.Config{
		Pool:             p,
		Costs:            cfg.Executor.Costs,
		MaxRetries:       cfg.Executor.MaxRetries,
		TransientBackoff: cfg.Executor.TransientBackoff,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case "sqlite":
		backend, err = storage.NewSQLiteBackend(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open state storage: %w", err)
		}
	default:
		backend = storage.NewMemoryBackend()
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		pool:     p,
		executor: exec,
		archive:  archive,
		backend:  backend,
	}

	if cfg.Alerting.Enabled {
		var alertMetrics *alerting.Metrics
		if cfg.Telemetry.Metrics.Enabled {
			alertMetrics = alerting.NewMetrics()
		}
		a.sweeper, err = buildSweeper(cfg, p, logger, alertMetrics)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// buildSweeper wires the alert evaluator, sinks, and cron sweeper.
func buildSweeper(cfg *config.Config, p *pool.Pool, logger *slog.Logger, metrics *alerting.Metrics) (*alerting.Sweeper, error) {
	dispatcher := alerting.NewDispatcher(logger)

	if cfg.Alerting.Email.Enabled {
		sink, err := alerting.NewEmailSink(alerting.EmailConfig{
			Host:     cfg.Alerting.Email.Host,
			Port:     cfg.Alerting.Email.Port,
			From:     cfg.Alerting.Email.From,
			To:       cfg.Alerting.Email.To,
			Username: cfg.Alerting.Email.Username,
			Password: cfg.Alerting.Email.Password,
		})
		if err != nil {
			return nil, err
		}
		dispatcher.Register(sink)
	}
	if cfg.Alerting.Slack.Enabled {
		sink, err := alerting.NewSlackSink(alerting.SlackConfig{
			WebhookURL: cfg.Alerting.Slack.WebhookURL,
			Channel:    cfg.Alerting.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		dispatcher.Register(sink)
	}

	evaluator := alerting.NewEvaluator(alerting.EvaluatorConfig{
		WarningThreshold:  cfg.Alerting.WarningThreshold,
		CriticalThreshold: cfg.Alerting.CriticalThreshold,
		Cooldown:          cfg.Alerting.Cooldown,
		Logger:            logger,
		Metrics:           metrics,
	})

	return alerting.NewSweeper(alerting.SweeperConfig{
		Pool:       p,
		Evaluator:  evaluator,
		Dispatcher: dispatcher,
		Schedule:   cfg.Alerting.Schedule,
		Retention:  cfg.Alerting.Retention,
		Logger:     logger,
	})
}

// close releases the app's backing resources.
func (a *app) close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Error("failed to close call archive", "error", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("failed to close state storage", "error", err)
		}
	}
}
