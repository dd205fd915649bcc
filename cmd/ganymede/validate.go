package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment variable
overrides, and report any validation problems.

Examples:
  # Validate the default config.yaml
  ganymede validate

  # Validate a specific file
  ganymede validate --config /etc/ganymede/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	keys := cfg.Credentials.ParseKeys()
	fmt.Printf("Configuration OK: %s\n", cfgFile)
	fmt.Printf("  Keys configured:   %d\n", len(keys))
	fmt.Printf("  Daily limit:       %d units/key\n", cfg.Credentials.DailyLimit)
	fmt.Printf("  Max retries:       %d\n", cfg.Executor.MaxRetries)
	fmt.Printf("  History size:      %d records\n", cfg.History.Size)
	fmt.Printf("  Storage backend:   %s\n", cfg.Storage.Backend)
	fmt.Printf("  Alerting enabled:  %v\n", cfg.Alerting.Enabled)
	if cfg.Alerting.Enabled {
		fmt.Printf("  Alert schedule:    %s\n", cfg.Alerting.Schedule)
		fmt.Printf("  Email sink:        %v\n", cfg.Alerting.Email.Enabled)
		fmt.Printf("  Slack sink:        %v\n", cfg.Alerting.Slack.Enabled)
	}
	return nil
}
