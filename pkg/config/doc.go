// Package config defines the application configuration and loads it
// from YAML files with environment variable overrides.
//
// # Overview
//
// The loading sequence is:
//
//  1. Parse YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides (GANYMEDE_SECTION_FIELD)
//  4. Validate the final configuration
//
// Environment variables always take precedence over file values, which
// keeps API keys out of configuration files in production.
//
// A FileWatcher is provided for hot-reloading the file on change, with
// debouncing so editor save storms trigger a single reload.
package config
