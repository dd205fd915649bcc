package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

var statusFlags struct {
	window time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pool quota status",
	Long: `Show the quota standing of every configured key, restored from the
persisted pool state when a storage backend is configured.

Examples:
  # Show current status
  ganymede status

  # Include call statistics for the last 6 hours
  ganymede status --window 6h`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVar(&statusFlags.window, "window", 24*time.Hour, "statistics window")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if err := a.pool.Restore(ctx, a.backend); err != nil {
		return err
	}

	snap := a.pool.StatusSnapshot()
	keys := a.cfg.Credentials.ParseKeys()

	fmt.Printf("Pool status at %s\n", snap.TakenAt.Format(time.RFC3339))
	fmt.Printf("Keys: %d, current: %d, calls today: %d\n\n",
		snap.TotalKeys, snap.CurrentIndex, snap.TotalCallsToday)

	fmt.Printf("%-5s %-14s %10s %10s %8s %-10s %s\n",
		"IDX", "KEY", "USED", "LIMIT", "PCT", "STATE", "RESETS AT")
	for _, ks := range snap.Keys {
		state := "ok"
		switch {
		case ks.Disabled:
			state = "disabled"
		case ks.IsExceeded:
			state = "exceeded"
		case ks.IsWarning:
			state = "warning"
		}
		fmt.Printf("%-5d %-14s %10d %10d %7.1f%% %-10s %s\n",
			ks.Index, logging.MaskKey(keys[ks.Index]), ks.Used, ks.Limit,
			ks.PercentUsed, state, ks.ResetAt.UTC().Format(time.RFC3339))
	}

	printStatistics(a.pool, statusFlags.window)
	return nil
}

func printStatistics(p *pool.Pool, window time.Duration) {
	stats := p.Statistics(window)
	if stats.TotalCalls == 0 {
		return
	}

	fmt.Printf("\nCall statistics (last %s)\n", window)
	fmt.Printf("  Total calls:  %d (%d failed)\n", stats.TotalCalls, stats.FailedCalls)
	fmt.Printf("  Total cost:   %d units\n", stats.TotalCost)
	for endpoint, es := range stats.Endpoints {
		fmt.Printf("  %-22s %6d calls %8d units %4d errors\n",
			endpoint, es.Calls, es.Cost, es.Errors)
	}
}
