package recommendation

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"skincare-backend/internal/shared/metrics"
	"skincare-backend/internal/shared/telemetry"
)

const (
	DefaultEndpoint = "https://skincare-recommendation-api.onrender.com/api/recommend"

	DefaultTimeout = 20 * time.Second
	MinTimeout     = 15 * time.Second
	MaxTimeout     = 30 * time.Second

	maxResponseBytes = 2 << 20
)

var tracer = otel.Tracer("skincare-backend/recommendation")

// ClampTimeout bounds a configured timeout to the supported window. Zero
// or negative values select the default.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// Client posts requests to the recommendation service. Fetch never fails:
// any transport problem yields the local fallback plus a Notice.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithInsecureTLS disables certificate verification for the service.
func WithInsecureTLS() Option {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		c.httpClient = &http.Client{Transport: transport}
	}
}

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient validates the endpoint and builds a client. timeout is the
// per-fetch default; it is used as given so callers apply ClampTimeout.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("RECOMMENDATION_URL is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid RECOMMENDATION_URL %q", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch sends one request and returns either the remote result or the
// local fallback. The notice is nil exactly when the result is remote.
// A non-positive timeout selects the client default. No retry is made.
func (c *Client) Fetch(ctx context.Context, req Request, timeout time.Duration) (Result, *Notice) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, span := tracer.Start(ctx, "recommendation.fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("recommendation.skin_type", req.SkinType),
		attribute.Int("recommendation.concerns", len(req.Concerns)),
		attribute.String("recommendation.budget", string(req.Budget)),
	)

	start := time.Now()
	result, err := c.fetchRemote(ctx, req, timeout)
	durationMs := metrics.SinceMillis(start)
	metrics.ObserveRecommendationDurationMs(durationMs)

	if err == nil {
		result.FetchedAt = c.now()
		metrics.IncRecommendationRemote()
		span.SetAttributes(attribute.String("recommendation.source", string(SourceRemote)))
		telemetry.Info("recommendation.fetch", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"source":      SourceRemote,
			"duration_ms": int64(durationMs),
		})
		return result, nil
	}

	metrics.IncRecommendationFallback(string(err.Kind))
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))
	span.SetAttributes(attribute.String("recommendation.source", string(SourceFallback)))
	telemetry.Warn("recommendation.fetch", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"source":      SourceFallback,
		"kind":        err.Kind,
		"status":      err.StatusCode,
		"error":       err.Error(),
		"duration_ms": int64(durationMs),
	})

	fallback := SynthesizeFallback(req.SkinType, req.Concerns)
	fallback.FetchedAt = c.now()
	return fallback, newNotice(err)
}

func (c *Client) fetchRemote(ctx context.Context, req Request, timeout time.Duration) (Result, *TransportError) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, &TransportError{Kind: KindEncode, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, &TransportError{Kind: KindEncode, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id := requestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Request-Id", id)
	}
	otel.GetTextMapPropagator().Inject(callCtx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, &TransportError{Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return Result{}, &TransportError{Kind: classifyTransport(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &TransportError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)),
		}
	}
	if len(body) > maxResponseBytes {
		return Result{}, &TransportError{Kind: KindMalformedBody, StatusCode: resp.StatusCode, Err: errors.New("response body too large")}
	}

	result, err := parseBody(body)
	if err != nil {
		return Result{}, &TransportError{Kind: KindMalformedBody, StatusCode: resp.StatusCode, Err: err}
	}
	return result, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
