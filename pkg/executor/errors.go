package executor

import (
	"errors"
	"fmt"

	"mercator-hq/ganymede/pkg/quota"
)

// Sentinel errors for remote call outcomes. Callers should use
// errors.Is to branch on them.
var (
	// ErrAllKeysExhausted indicates that no configured credential is
	// currently eligible.
	ErrAllKeysExhausted = errors.New("all API keys are exhausted or disabled")

	// ErrDailyQuotaExceeded indicates the remote API reported the daily
	// quota as exhausted.
	ErrDailyQuotaExceeded = errors.New("daily quota exceeded")

	// ErrRateLimitExceeded indicates the remote API reported a
	// short-term rate limit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrKeyInvalid indicates the remote API rejected the credential.
	ErrKeyInvalid = errors.New("API key invalid")

	// ErrNetworkTransient indicates a network failure persisted through
	// all retry attempts.
	ErrNetworkTransient = errors.New("transient network failure")

	// ErrUnknownRemote indicates an unclassified remote failure.
	ErrUnknownRemote = errors.New("unknown remote error")
)

// ExecError describes a failed Execute call. It wraps one of the
// sentinel errors above and carries the classified kind, the attempt
// count, and a message suitable for surfacing to users.
type ExecError struct {
	// Kind is the classified error kind.
	Kind quota.ErrorKind

	// Endpoint is the logical endpoint that was being called.
	Endpoint string

	// Attempts is how many call attempts were made.
	Attempts int

	// Message is the remote error text from the final attempt.
	Message string

	// UserMessage is an operator-facing explanation safe to surface.
	UserMessage string

	// Err is the wrapped sentinel error.
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %v after %d attempt(s): %s", e.Endpoint, e.Err, e.Attempts, e.Message)
	}
	return fmt.Sprintf("%s %v after %d attempt(s)", e.Endpoint, e.Err, e.Attempts)
}

// Unwrap returns the wrapped sentinel error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// sentinelFor maps a classified kind to its sentinel error.
func sentinelFor(kind quota.ErrorKind) error {
	switch kind {
	case quota.KindDailyQuotaExceeded:
		return ErrDailyQuotaExceeded
	case quota.KindRateLimitExceeded:
		return ErrRateLimitExceeded
	case quota.KindKeyInvalid:
		return ErrKeyInvalid
	default:
		return ErrUnknownRemote
	}
}
