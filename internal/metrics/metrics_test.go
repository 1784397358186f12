package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupRecorder(t *testing.T) (Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown meter provider: %v", err)
		}
	})
	rec, err := New(provider)
	require.NoError(t, err)
	return rec, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecorder(t *testing.T) {
	rec, reader := setupRecorder(t)
	ctx := context.Background()

	rec.Admission(ctx, "confirmed")
	rec.Admission(ctx, "pending")
	rec.Cascade(ctx, 3)
	rec.Cascade(ctx, 0)
	rec.Transition(ctx, "publish", "PENDING", "PUBLISHED")
	rec.StatsCall(ctx, 12*time.Millisecond, nil)
	rec.StatsCall(ctx, 2*time.Second, errors.New("timeout"))
	rec.ViewsDegraded(ctx, 4)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "ewm.requests.decisions")))
	assert.Equal(t, int64(3), sumOf(t, findMetric(rm, "ewm.requests.cascade_rejected")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "ewm.events.transitions")))
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "ewm.stats.calls")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "ewm.stats.errors")))
	assert.Equal(t, int64(4), sumOf(t, findMetric(rm, "ewm.listing.views_degraded")))
	assert.NotNil(t, findMetric(rm, "ewm.stats.latency_ms"))
}

func TestNoop(t *testing.T) {
	var rec Recorder = Noop{}
	assert.NotPanics(t, func() {
		rec.Admission(context.Background(), "x")
		rec.StatsCall(context.Background(), time.Second, nil)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	h := NewHTTP("test")
	r := chi.NewRouter()
	r.Use(h.Middleware)
	r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", h.Handler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/abc", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/events/{id}",service="test",status="418"} 2`)
}

func TestMeterProviderExportsOnMetricsEndpoint(t *testing.T) {
	h := NewHTTP("test")
	provider, err := NewMeterProvider(h, "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown meter provider: %v", err)
		}
	})

	rec, err := New(provider)
	require.NoError(t, err)
	rec.Admission(context.Background(), "confirmed")
	rec.Cascade(context.Background(), 2)

	w := httptest.NewRecorder()
	h.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "ewm_requests_decisions_total")
	assert.Contains(t, body, `outcome="confirmed"`)
	assert.Contains(t, body, "ewm_requests_cascade_rejected_total")
}
