package odata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize is the maximum accepted response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

const tracerName = "github.com/erp/invoice/internal/infrastructure/odata"

// Request outcomes reported to the MetricsRecorder.
const (
	OutcomeOK             = "ok"
	OutcomeNotFound       = "not_found"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

// MetricsRecorder observes upstream calls.
type MetricsRecorder interface {
	ObserveRequest(source Source, outcome string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(Source, string, time.Duration) {}

// Config holds the connection settings shared by every source.
type Config struct {
	// Endpoints maps each source to its entity-set URL.
	Endpoints map[Source]string
	Username  string
	Password  string
	// Timeout bounds a single call.
	Timeout time.Duration
	// RateLimitQPS caps outbound calls per second; zero disables the cap.
	RateLimitQPS float64
	RateBurst    int
	// Format is the $format option added to queries that do not set one; "" sends none.
	Format string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the recorder for call outcomes and latency.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider sets the provider used for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// Client performs authenticated OData reads. It is safe for concurrent use.
type Client struct {
	endpoints  map[Source]string
	username   string
	password   string
	format     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    MetricsRecorder
	tracer     trace.Tracer
}

// NewClient creates a gateway client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	endpoints := make(map[Source]string, len(cfg.Endpoints))
	for s, u := range cfg.Endpoints {
		if u != "" {
			endpoints[s] = u
		}
	}

	c := &Client{
		endpoints:  endpoints,
		username:   cfg.Username,
		password:   cfg.Password,
		format:     cfg.Format,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		metrics:    nopMetrics{},
		tracer:     otel.Tracer(tracerName),
	}
	if cfg.RateLimitQPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether source has a base URL.
func (c *Client) Configured(source Source) bool {
	_, ok := c.endpoints[source]
	return ok
}

// Fetch performs one GET for q and returns the normalized payload.
// There is a single attempt; errors match ErrRemoteUnavailable, and ErrNotFound for 404.
func (c *Client) Fetch(ctx context.Context, q Query) (Payload, error) {
	base, ok := c.endpoints[q.Source]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %w: %s", ErrRemoteUnavailable, ErrSourceNotConfigured, q.Source)
	}
	if q.Format == "" {
		q.Format = c.format
	}
	target := q.Encode(base)

	ctx, span := c.tracer.Start(ctx, "odata.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("odata.source", q.Source.String())),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit wait")
			return Payload{}, fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, q.Source, err)
		}
	}

	start := time.Now()
	payload, err := c.get(ctx, q.Source, target)
	elapsed := time.Since(start)

	outcome := OutcomeOK
	if err != nil {
		var se *StatusError
		switch {
		case errors.Is(err, ErrNotFound):
			outcome = OutcomeNotFound
		case errors.As(err, &se):
			outcome = OutcomeHTTPError
		default:
			outcome = OutcomeTransportError
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	c.metrics.ObserveRequest(q.Source, outcome, elapsed)
	c.logger.Debug("odata request",
		zap.String("source", q.Source.String()),
		zap.String("url", target),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
	return payload, err
}

func (c *Client) get(ctx context.Context, source Source, target string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: build request: %w", ErrRemoteUnavailable, source, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: read body: %w", ErrRemoteUnavailable, source, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Payload{}, &StatusError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Message:    extractMessage(resp.StatusCode, body),
		}
	}

	payload, err := Normalize(body)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, source, err)
	}
	return payload, nil
}
