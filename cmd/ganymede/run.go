package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
)

var runFlags struct {
	metricsAddr     string
	persistInterval time.Duration
	watchConfig     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestration service",
	Long: `Run the pool as a long-lived service: the alert sweeper checks quota
consumption on its schedule, pool state is persisted periodically, the
configuration file is watched for endpoint cost changes, and metrics
are exposed over HTTP when enabled.

The service stops cleanly on SIGINT or SIGTERM, flushing the call
archive and saving a final state snapshot.

Examples:
  # Run with the default config.yaml
  ganymede run

  # Expose Prometheus metrics
  ganymede run --metrics-addr :9090`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.metricsAddr, "metrics-addr", ":9090", "metrics listen address")
	runCmd.Flags().DurationVar(&runFlags.persistInterval, "persist-interval", 5*time.Minute, "pool state save interval")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", true, "reload endpoint costs on config change")
}

func runService(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.pool.Restore(ctx, a.backend); err != nil {
		return err
	}

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return err
		}
	}

	if runFlags.watchConfig {
		watcher, err := config.NewFileWatcher(cfgFile, a.logger)
		if err != nil {
			return err
		}
		go watcher.Watch(ctx, func() error {
			cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
			if err != nil {
				return err
			}
			a.executor.UpdateCosts(cfg.Executor.Costs)
			a.logger.Info("endpoint costs reloaded", "endpoints", len(cfg.Executor.Costs))
			return nil
		})
		defer watcher.Stop()
	}

	var metricsSrv *http.Server
	if a.cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(a.cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{Addr: runFlags.metricsAddr, Handler: mux}
		go func() {
			a.logger.Info("metrics endpoint listening",
				"addr", runFlags.metricsAddr,
				"path", a.cfg.Telemetry.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	a.logger.Info("ganymede running",
		"keys", a.pool.Len(),
		"persist_interval", runFlags.persistInterval)

	ticker := time.NewTicker(runFlags.persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := a.pool.Persist(ctx, a.backend); err != nil {
				a.logger.Error("periodic state save failed", "error", err)
			}
		case <-ctx.Done():
			a.logger.Info("shutting down")
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				metricsSrv.Shutdown(shutdownCtx)
				cancel()
			}
			if err := a.pool.Persist(context.Background(), a.backend); err != nil {
				a.logger.Error("final state save failed", "error", err)
				return err
			}
			fmt.Println("State saved, bye.")
			return nil
		}
	}
}
