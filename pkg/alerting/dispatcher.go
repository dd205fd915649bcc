package alerting

import (
	"context"
	"log/slog"
	"sync"
)

// Sink delivers alert events to a destination.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Send delivers one event. Errors are reported to the dispatcher's
	// logger, never to the alert source.
	Send(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc struct {
	name string
	fn   func(ctx context.Context, event Event) error
}

// NewSinkFunc wraps fn as a named Sink.
func NewSinkFunc(name string, fn func(ctx context.Context, event Event) error) *SinkFunc {
	return &SinkFunc{name: name, fn: fn}
}

// Name implements Sink.
func (s *SinkFunc) Name() string { return s.name }

// Send implements Sink.
func (s *SinkFunc) Send(ctx context.Context, event Event) error {
	return s.fn(ctx, event)
}

// Dispatcher fans alert events out to registered sinks.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher with no sinks registered.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger.With("component", "alerting.dispatcher"),
	}
}

// Register adds a sink. Nil sinks are ignored.
func (d *Dispatcher) Register(sink Sink) {
	if sink == nil {
		return
	}
	d.mu.Lock()
	d.sinks = append(d.sinks, sink)
	d.mu.Unlock()
}

// Sinks returns the number of registered sinks.
func (d *Dispatcher) Sinks() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sinks)
}

// Dispatch delivers every event to every registered sink. A sink
// failure is logged and does not affect other sinks or events.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}

	d.mu.RLock()
	sinks := make([]Sink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	for _, event := range events {
		for _, sink := range sinks {
			if err := sink.Send(ctx, event); err != nil {
				d.logger.Error("alert delivery failed",
					"sink", sink.Name(),
					"event_id", event.ID,
					"severity", event.Severity,
					"error", err)
				continue
			}
			d.logger.Debug("alert delivered",
				"sink", sink.Name(),
				"event_id", event.ID)
		}
	}
}
