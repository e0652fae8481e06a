// Package notify delivers leads to the external lead inbox and CRM APIs.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/circuitbreaker"
	"github.com/eugener/restorehq/internal/telemetry"
)

const (
	defaultHealthPath = "/health"
	maxResponseBody   = 64 << 10
)

var _ restorehq.Notifier = (*Client)(nil)

// PayloadFunc builds the JSON request body sent for a lead.
type PayloadFunc func(lead *restorehq.Lead) (any, error)

// Options configures a Client.
type Options struct {
	Name    string // notifier identifier, used in logs and metrics
	BaseURL string
	Path    string // endpoint receiving leads, e.g. "/leads"

	// Health probe. StatusPath is a gjson path into the probe response;
	// when set, its value must equal Expect for the upstream to be up.
	HealthPath string
	StatusPath string
	Expect     string

	Payload    PayloadFunc
	HTTPClient *http.Client           // nil = http.DefaultClient
	Breaker    *circuitbreaker.Breaker // nil = no breaker
	Metrics    *telemetry.Metrics      // nil = no metrics
}

// Client posts leads to one upstream API.
type Client struct {
	name       string
	endpoint   string
	healthURL  string
	statusPath string
	expect     string
	payload    PayloadFunc
	http       *http.Client
	breaker    *circuitbreaker.Breaker
	metrics    *telemetry.Metrics
}

// New creates a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	healthPath := opts.HealthPath
	if healthPath == "" {
		healthPath = defaultHealthPath
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	payload := opts.Payload
	if payload == nil {
		payload = func(lead *restorehq.Lead) (any, error) { return lead, nil }
	}
	return &Client{
		name:       opts.Name,
		endpoint:   base + opts.Path,
		healthURL:  base + healthPath,
		statusPath: opts.StatusPath,
		expect:     opts.Expect,
		payload:    payload,
		http:       client,
		breaker:    opts.Breaker,
		metrics:    opts.Metrics,
	}
}

// Name returns the notifier identifier.
func (c *Client) Name() string { return c.name }

// BreakerState returns the breaker state name, or "" without a breaker.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return ""
	}
	return c.breaker.State().String()
}

// Notify posts the lead and returns the upstream's id for it.
// While the breaker is open no request is made and the error wraps
// restorehq.ErrUpstreamUnavailable.
func (c *Client) Notify(ctx context.Context, lead *restorehq.Lead) (string, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		c.countError()
		return "", fmt.Errorf("notify %s: %w: %w", c.name, restorehq.ErrUpstreamUnavailable, circuitbreaker.ErrOpen)
	}

	ctx, span := telemetry.Tracer("restorehq/notify").Start(ctx, "notify.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("notify.upstream", c.name),
			attribute.String("lead.id", lead.ID),
		),
	)
	defer span.End()

	start := time.Now()
	ref, err := c.send(ctx, lead)
	if c.metrics != nil {
		c.metrics.NotifyDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}
	if c.breaker != nil {
		c.breaker.Record(err)
	}
	if err != nil {
		c.countError()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("notify.ref", ref))
	return ref, nil
}

func (c *Client) send(ctx context.Context, lead *restorehq.Lead) (string, error) {
	payload, err := c.payload(lead)
	if err != nil {
		return "", fmt.Errorf("notify %s: build payload: %w", c.name, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("notify %s: marshal payload: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notify %s: create request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", lead.ID)
	if lead.RequestID != "" {
		req.Header.Set("X-Request-Id", lead.RequestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify %s: do request: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseAPIError(c.name, resp)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("notify %s: read response: %w", c.name, err)
	}
	return gjson.GetBytes(respBody, "id").String(), nil
}

// Ping probes the upstream's health endpoint. It bypasses the breaker so
// health reports reflect the upstream itself.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("ping %s: create request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(c.name, resp)
	}
	if c.statusPath == "" {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("ping %s: read response: %w", c.name, err)
	}
	if got := gjson.GetBytes(body, c.statusPath).String(); got != c.expect {
		return fmt.Errorf("ping %s: %s = %q, want %q", c.name, c.statusPath, got, c.expect)
	}
	return nil
}

func (c *Client) countError() {
	if c.metrics != nil {
		c.metrics.NotifyErrors.WithLabelValues(c.name).Inc()
	}
}
