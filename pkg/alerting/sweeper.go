package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/pool"
)

// DefaultSweepSchedule checks the pool once a minute.
const DefaultSweepSchedule = "@every 1m"

// DefaultAlertRetention bounds how long raised alerts and cooldown
// entries are kept before a sweep prunes them. Must exceed the
// evaluator cooldown or dedup state would be dropped early.
const DefaultAlertRetention = 24 * time.Hour

// SweeperConfig configures a Sweeper.
type SweeperConfig struct {
	// Pool is the credential pool to watch. Required.
	Pool *pool.Pool

	// Evaluator raises the alerts. Required.
	Evaluator *Evaluator

	// Dispatcher delivers the alerts. Required.
	Dispatcher *Dispatcher

	// Schedule is a cron expression for sweep timing.
	// Default: DefaultSweepSchedule.
	Schedule string

	// Retention is how long raised alerts are kept before sweeps
	// prune them. Default: DefaultAlertRetention.
	Retention time.Duration

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
}

// Sweeper periodically evaluates the pool and dispatches any alerts.
type Sweeper struct {
	pool       *pool.Pool
	evaluator  *Evaluator
	dispatcher *Dispatcher
	schedule   string
	retention  time.Duration
	cron       *cron.Cron
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a Sweeper.
func NewSweeper(cfg SweeperConfig) (*Sweeper, error) {
	if cfg.Pool == nil || cfg.Evaluator == nil || cfg.Dispatcher == nil {
		return nil, fmt.Errorf("sweeper: pool, evaluator, and dispatcher are required")
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultAlertRetention
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		pool:       cfg.Pool,
		evaluator:  cfg.Evaluator,
		dispatcher: cfg.Dispatcher,
		schedule:   schedule,
		retention:  retention,
		cron:       cron.New(),
		logger:     logger.With("component", "alerting.sweeper"),
	}, nil
}

// Start begins scheduled sweeping. The sweeper stops itself when ctx
// is canceled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule quota sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("quota sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Sweep runs one evaluation cycle immediately and drops alert history
// past the retention window.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()
	if pruned := s.evaluator.Prune(now.Add(-s.retention)); pruned > 0 {
		s.logger.Debug("pruned expired alerts", "count", pruned)
	}

	snap := s.pool.StatusSnapshot()
	events := s.evaluator.Check(snap, now)
	if len(events) == 0 {
		s.logger.Debug("quota sweep completed, no alerts")
		return
	}
	s.logger.Info("quota sweep raised alerts", "count", len(events))
	s.dispatcher.Dispatch(ctx, events)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("quota sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is scheduled.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when the
// sweeper is not running.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
