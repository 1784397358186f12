// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// Lifecycle owns event state transitions, Admission owns participation
// requests and the capacity limit, Listing builds the enriched read views.
// Every write runs inside repository.EventStore.InTx so checks and writes
// on one event never interleave.
package service

import (
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
)

// Option configures a service.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the domain metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) { o.metrics = r }
}

// WithClock replaces time.Now. Tests use it to pin the temporal guards.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		metrics: metrics.Noop{},
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
