// Package metrics records domain metrics through OpenTelemetry and HTTP
// metrics through Prometheus.
//
// Domain metrics are opt-in: services hold a Recorder and default to Noop.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder receives domain events from the services.
type Recorder interface {
	// Admission records the outcome of a request decision
	// ("pending", "confirmed", "rejected", "canceled", "full", "duplicate").
	Admission(ctx context.Context, outcome string)

	// Cascade records how many pending requests one confirmation rejected.
	Cascade(ctx context.Context, rejected int)

	// Transition records an event lifecycle transition.
	Transition(ctx context.Context, op, from, to string)

	// StatsCall records one call to the stats collector.
	StatsCall(ctx context.Context, d time.Duration, err error)

	// ViewsDegraded records a listing served with zero views.
	ViewsDegraded(ctx context.Context, events int)
}

type otelRecorder struct {
	admissions  metric.Int64Counter
	cascaded    metric.Int64Counter
	transitions metric.Int64Counter
	statsCalls  metric.Int64Counter
	statsErrors metric.Int64Counter
	statsMs     metric.Float64Histogram
	degraded    metric.Int64Counter
}

// New builds a Recorder from the given meter provider.
func New(mp metric.MeterProvider) (Recorder, error) {
	meter := mp.Meter("explore-events")

	admissions, err := meter.Int64Counter("ewm.requests.decisions",
		metric.WithDescription("Participation request decisions by outcome"))
	if err != nil {
		return nil, err
	}
	cascaded, err := meter.Int64Counter("ewm.requests.cascade_rejected",
		metric.WithDescription("Pending requests rejected because a confirmation filled the event"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("ewm.events.transitions",
		metric.WithDescription("Event lifecycle transitions"))
	if err != nil {
		return nil, err
	}
	statsCalls, err := meter.Int64Counter("ewm.stats.calls",
		metric.WithDescription("Calls to the stats collector"))
	if err != nil {
		return nil, err
	}
	statsErrors, err := meter.Int64Counter("ewm.stats.errors",
		metric.WithDescription("Failed calls to the stats collector"))
	if err != nil {
		return nil, err
	}
	statsMs, err := meter.Float64Histogram("ewm.stats.latency_ms",
		metric.WithDescription("Stats collector call latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	degraded, err := meter.Int64Counter("ewm.listing.views_degraded",
		metric.WithDescription("Events served with zero views because the collector failed"))
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		admissions:  admissions,
		cascaded:    cascaded,
		transitions: transitions,
		statsCalls:  statsCalls,
		statsErrors: statsErrors,
		statsMs:     statsMs,
		degraded:    degraded,
	}, nil
}

func (r *otelRecorder) Admission(ctx context.Context, outcome string) {
	r.admissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *otelRecorder) Cascade(ctx context.Context, rejected int) {
	if rejected > 0 {
		r.cascaded.Add(ctx, int64(rejected))
	}
}

func (r *otelRecorder) Transition(ctx context.Context, op, from, to string) {
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (r *otelRecorder) StatsCall(ctx context.Context, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	r.statsCalls.Add(ctx, 1, attrs)
	r.statsMs.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if err != nil {
		r.statsErrors.Add(ctx, 1)
	}
}

func (r *otelRecorder) ViewsDegraded(ctx context.Context, events int) {
	r.degraded.Add(ctx, int64(events))
}

// Noop is a Recorder that does nothing.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) Admission(context.Context, string)                  {}
func (Noop) Cascade(context.Context, int)                       {}
func (Noop) Transition(context.Context, string, string, string) {}
func (Noop) StatsCall(context.Context, time.Duration, error)    {}
func (Noop) ViewsDegraded(context.Context, int)                 {}
