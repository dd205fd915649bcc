package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/quota"
)

const (
	// DefaultMaxRetries is the attempt budget per Execute call.
	DefaultMaxRetries = 3

	// DefaultTransientBackoff is the fixed pause between retries of a
	// transient network failure.
	DefaultTransientBackoff = time.Second

	// defaultCost is charged for endpoints missing from the cost table.
	defaultCost = 1
)

// CallFunc performs one attempt of a remote call using the given API
// key. It must honor ctx and return the remote error unmodified so the
// executor can classify its text.
type CallFunc func(ctx context.Context, apiKey string) (any, error)

// Config configures an Executor.
type Config struct {
	// Pool is the credential pool. Required.
	Pool *pool.Pool

	// Costs maps endpoint names to their quota cost in units.
	// Endpoints not listed cost 1 unit.
	Costs map[string]int

	// MaxRetries is the attempt budget per call.
	// Default: DefaultMaxRetries.
	MaxRetries int

	// TransientBackoff is the pause between retries of a transient
	// network failure. Default: DefaultTransientBackoff.
	TransientBackoff time.Duration

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
}

// Executor runs remote calls with retry and credential failover.
type Executor struct {
	pool       *pool.Pool
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger

	costMu sync.RWMutex
	costs  map[string]int
}

// New creates an Executor. The pool is required.
func New(cfg Config) (*Executor, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("executor: pool is required")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := cfg.TransientBackoff
	if backoff <= 0 {
		backoff = DefaultTransientBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	costs := make(map[string]int, len(cfg.Costs))
	for k, v := range cfg.Costs {
		costs[k] = v
	}

	return &Executor{
		pool:       cfg.Pool,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger.With("component", "executor"),
		costs:      costs,
	}, nil
}

// Cost returns the quota cost for an endpoint. Unlisted endpoints cost
// one unit.
func (e *Executor) Cost(endpoint string) int {
	e.costMu.RLock()
	defer e.costMu.RUnlock()
	if c, ok := e.costs[endpoint]; ok && c > 0 {
		return c
	}
	return defaultCost
}

// UpdateCosts replaces the endpoint cost table. In-flight calls keep
// the cost they resolved at start.
func (e *Executor) UpdateCosts(costs map[string]int) {
	next := make(map[string]int, len(costs))
	for k, v := range costs {
		next[k] = v
	}
	e.costMu.Lock()
	e.costs = next
	e.costMu.Unlock()
}

// Execute runs fn against the remote API with retry and failover. On
// success the endpoint's cost is charged against the key that served
// the call. Transient network failures are retried on the same key
// after a fixed backoff; quota and key errors rotate the pool to the
// next credential and retry; unknown errors propagate immediately.
// The returned error, when non-nil, is a *ExecError.
func (e *Executor) Execute(ctx context.Context, endpoint string, fn CallFunc) (any, error) {
	cost := e.Cost(endpoint)

	var lastErr *ExecError
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &ExecError{
				Kind:        quota.KindUnknown,
				Endpoint:    endpoint,
				Attempts:    attempt - 1,
				Message:     err.Error(),
				UserMessage: "The request was canceled before completion.",
				Err:         err,
			}
		}

		cred, ok := e.pool.Current()
		if !ok {
			return nil, e.exhaustedError(endpoint, attempt-1)
		}

		started := time.Now()
		result, err := fn(ctx, cred.Key)
		e.pool.ObserveCallDuration(endpoint, time.Since(started))
		if err == nil {
			e.pool.RecordCall(cred.Index, endpoint, cost, true, "")
			return result, nil
		}

		errText := err.Error()
		if quota.IsTransient(errText) {
			e.pool.RecordCall(cred.Index, endpoint, 0, false, errText)
			e.logger.Warn("transient network failure",
				"endpoint", endpoint,
				"attempt", attempt,
				"max_retries", e.maxRetries,
				"error", errText)
			lastErr = &ExecError{
				Kind:        quota.KindUnknown,
				Endpoint:    endpoint,
				Attempts:    attempt,
				Message:     errText,
				UserMessage: "A network problem interrupted the request. Please try again.",
				Err:         ErrNetworkTransient,
			}
			if attempt < e.maxRetries {
				if err := sleepContext(ctx, e.backoff); err != nil {
					return nil, lastErr
				}
			}
			continue
		}

		kind, userMsg := e.pool.ClassifyAndHandle(cred.Index, errText, endpoint)
		if kind == quota.KindUnknown {
			e.logger.Error("unclassified remote error",
				"endpoint", endpoint,
				"attempt", attempt,
				"error", errText)
			return nil, &ExecError{
				Kind:        kind,
				Endpoint:    endpoint,
				Attempts:    attempt,
				Message:     errText,
				UserMessage: userMsg,
				Err:         ErrUnknownRemote,
			}
		}

		lastErr = &ExecError{
			Kind:        kind,
			Endpoint:    endpoint,
			Attempts:    attempt,
			Message:     errText,
			UserMessage: userMsg,
			Err:         sentinelFor(kind),
		}
		e.logger.Warn("rotating credential after remote error",
			"endpoint", endpoint,
			"attempt", attempt,
			"kind", kind)
		if _, ok := e.pool.Rotate(); !ok {
			return nil, e.exhaustedError(endpoint, attempt)
		}
	}

	return nil, lastErr
}

// exhaustedError builds the error returned when no credential is
// eligible, including the soonest time the pool can recover.
func (e *Executor) exhaustedError(endpoint string, attempts int) *ExecError {
	reset := e.pool.EarliestReset()
	e.logger.Error("no usable API key remains",
		"endpoint", endpoint,
		"earliest_reset", reset)
	return &ExecError{
		Kind:     quota.KindDailyQuotaExceeded,
		Endpoint: endpoint,
		Attempts: attempts,
		UserMessage: "All configured API keys are exhausted or disabled. The earliest quota reset is at " +
			reset.UTC().Format(time.RFC3339) + ".",
		Err: ErrAllKeysExhausted,
	}
}

// sleepContext pauses for d or until ctx is done, whichever is first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs a typed remote call through an Executor. It exists so callers
// do not have to type-assert Execute's result.
func Do[T any](ctx context.Context, e *Executor, endpoint string, fn func(ctx context.Context, apiKey string) (T, error)) (T, error) {
	result, err := e.Execute(ctx, endpoint, func(ctx context.Context, apiKey string) (any, error) {
		return fn(ctx, apiKey)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("executor: result for %s is %T, not %T", endpoint, result, zero)
	}
	return v, nil
}
