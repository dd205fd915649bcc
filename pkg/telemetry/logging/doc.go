// Package logging configures structured logging and keeps credential
// material out of log output.
//
// # Overview
//
// New builds a *log/slog.Logger from a small configuration (level,
// format, destination). Packages attach their identity with
// logger.With("component", ...).
//
// Because remote API error messages can echo the key that was used,
// the package also provides MaskKey for log fields and a Sanitizer
// that scrubs configured key material out of arbitrary text before it
// is logged or surfaced to users.
package logging
