package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"afilia/internal/platform/config"
	"afilia/internal/platform/metrics"
	"afilia/pkg/platform/sentinel"
)

// LookupClient queries the CX registry for an existing profile by card number
// or email. A non-matching query is a successful call with Results=false, not
// an error; errors mean the registry itself could not answer.
//
//go:generate mockgen -source=client.go -destination=mocks/mock_lookup.go -package=mocks
type LookupClient interface {
	Lookup(ctx context.Context, req LookupRequest) (LookupResponse, error)
}

// HTTPClient is the production LookupClient. Every call carries the service
// bearer token; the CX side enforces it.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewHTTPClient(cfg config.CXConfig, m *metrics.Metrics) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		tracer:  otel.Tracer("afilia/profile"),
	}
}

func (c *HTTPClient) Lookup(ctx context.Context, req LookupRequest) (LookupResponse, error) {
	ctx, span := c.tracer.Start(ctx, "cx.lookup")
	defer span.End()

	start := time.Now()
	defer func() {
		c.metrics.ObserveLookup(time.Since(start))
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return LookupResponse{}, fmt.Errorf("marshal lookup request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/CX/clients", bytes.NewReader(body))
	if err != nil {
		return LookupResponse{}, fmt.Errorf("build lookup request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return LookupResponse{}, fmt.Errorf("cx lookup: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return LookupResponse{}, fmt.Errorf("cx lookup status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return LookupResponse{}, fmt.Errorf("cx lookup unexpected status %d", resp.StatusCode)
	}

	var out LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LookupResponse{}, fmt.Errorf("decode lookup response: %w", err)
	}
	return out, nil
}
