package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/executor"
)

var simulateFlags struct {
	calls     int
	endpoint  string
	failRate  float64
	errorText string
	persist   bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a synthetic workload against the pool",
	Long: `Drive the credential pool and executor with synthetic calls, injecting
remote failures at a configurable rate, and report the resulting quota
standing. Useful for exercising rotation and alerting behavior without
touching the real API.

Examples:
  # 500 clean calls
  ganymede simulate --calls 500

  # Inject quota errors on 10% of calls
  ganymede simulate --calls 500 --fail-rate 0.1 --error quotaExceeded

  # Inject transient network failures
  ganymede simulate --fail-rate 0.2 --error "connection reset by peer"`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simulateFlags.calls, "calls", 100, "number of synthetic calls")
	simulateCmd.Flags().StringVar(&simulateFlags.endpoint, "endpoint", "search.list", "endpoint name to simulate")
	simulateCmd.Flags().Float64Var(&simulateFlags.failRate, "fail-rate", 0, "fraction of calls that fail (0-1)")
	simulateCmd.Flags().StringVar(&simulateFlags.errorText, "error", "quotaExceeded", "remote error text for injected failures")
	simulateCmd.Flags().BoolVar(&simulateFlags.persist, "persist", false, "save pool state to the storage backend afterwards")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if err := a.pool.Restore(ctx, a.backend); err != nil {
		return err
	}

	fmt.Printf("Simulating %d calls to %s (fail rate %.0f%%)\n\n",
		simulateFlags.calls, simulateFlags.endpoint, simulateFlags.failRate*100)

	var succeeded, failed int
	var stopped error
	for i := 0; i < simulateFlags.calls; i++ {
		_, err := a.executor.Execute(ctx, simulateFlags.endpoint,
			func(ctx context.Context, apiKey string) (any, error) {
				if rand.Float64() < simulateFlags.failRate {
					return nil, errors.New(simulateFlags.errorText)
				}
				return struct{}{}, nil
			})
		if err == nil {
			succeeded++
			continue
		}
		failed++
		if errors.Is(err, executor.ErrAllKeysExhausted) {
			stopped = err
			break
		}
	}

	fmt.Printf("Succeeded: %d\nFailed:    %d\n", succeeded, failed)
	if stopped != nil {
		fmt.Printf("Stopped early: %v\n", stopped)
	}

	snap := a.pool.StatusSnapshot()
	fmt.Printf("\n%-5s %10s %10s %8s\n", "IDX", "USED", "LIMIT", "PCT")
	for _, ks := range snap.Keys {
		fmt.Printf("%-5d %10d %10d %7.1f%%\n", ks.Index, ks.Used, ks.Limit, ks.PercentUsed)
	}

	if simulateFlags.persist {
		if err := a.pool.Persist(ctx, a.backend); err != nil {
			return err
		}
		fmt.Printf("\nPool state saved at %s\n", time.Now().UTC().Format(time.RFC3339))
	}
	return nil
}
