// Ganymede is a quota-aware orchestration layer for multi-key API
// access.
//
// It manages a pool of API credentials with per-key daily quota
// accounting, automatic failover when a key is exhausted or rejected,
// retry with classification of remote errors, and threshold alerting
// to email or Slack.
//
// Usage:
//
//	# Validate a configuration file
//	ganymede validate --config /path/to/config.yaml
//
//	# Show current pool status from persisted state
//	ganymede status --config /path/to/config.yaml
//
//	# Run a synthetic workload against the pool
//	ganymede simulate --calls 500 --fail-rate 0.1
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
