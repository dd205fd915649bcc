package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - quota-aware multi-key API orchestration",
	Long: `Ganymede coordinates a pool of API credentials against daily quota
limits. It tracks per-key consumption, fails over automatically when a
key is exhausted or rejected, retries transient network failures, and
raises threshold alerts before quota runs out.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
