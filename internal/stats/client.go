// Package stats is the HTTP client of the statistics collector.
//
// The collector records endpoint hits and answers aggregated view counts:
//
//	POST {base}/hit                                  {app, uri, ip, timestamp}
//	GET  {base}/stats?start=&end=&uris=&unique=      [{app, uri, hits}]
//
// Dates travel in model.DateTimeLayout. Every transport failure, non-2xx
// answer and timeout is returned wrapped in apperr.ErrUpstreamUnavailable.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// EndpointHit is one recorded request to a public endpoint.
type EndpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// ViewStats is the hit count of one URI.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Query selects hits in [Start, End]. Empty URIs means every URI.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

// Client talks to one collector instance.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	tracer  trace.Tracer
	metrics metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMetrics records call latency and failures.
func WithMetrics(r metrics.Recorder) Option {
	return func(cl *Client) { cl.metrics = r }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

// NewClient returns a client for the collector at baseURL. timeout bounds
// every call, including connection setup.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tracer:  otel.Tracer("explore-events/stats"),
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hit records one endpoint hit.
func (c *Client) Hit(ctx context.Context, hit EndpointHit) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "stats.Hit", trace.WithAttributes(
		attribute.String("stats.uri", hit.URI),
	))
	defer func() { c.finish(span, start, err) }()

	body, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(callCtx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(err, "post hit")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return apperr.Upstream(nil, "post hit: collector answered %d", resp.StatusCode)
	}
	return nil
}

// Stats returns the hit counts matching q. URIs without hits are absent
// from the result.
func (c *Client) Stats(ctx context.Context, q Query) (out []ViewStats, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "stats.Stats", trace.WithAttributes(
		attribute.Int("stats.uris", len(q.URIs)),
		attribute.Bool("stats.unique", q.Unique),
	))
	defer func() { c.finish(span, start, err) }()

	params := url.Values{}
	params.Set("start", model.FormatDateTime(q.Start))
	params.Set("end", model.FormatDateTime(q.End))
	params.Set("unique", strconv.FormatBool(q.Unique))
	for _, u := range q.URIs {
		params.Add("uris", u)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(callCtx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "get stats")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperr.Upstream(nil, "get stats: collector answered %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Upstream(err, "decode stats")
	}
	return out, nil
}

func (c *Client) finish(span trace.Span, start time.Time, err error) {
	c.metrics.StatsCall(context.Background(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
