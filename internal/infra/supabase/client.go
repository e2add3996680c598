// Package supabase implements port.Store against the Supabase PostgREST
// API. Each call is a single authenticated HTTP request; reads run under
// the circuit breaker with bounded retries, writes stay single-attempt so
// a timed-out insert is never silently repeated.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
	}
}

// read runs fn under the bulkhead and circuit breaker with bounded
// retries. A missing row is an answer, not a backend failure: ErrNotFound
// passes through without burning retries or tripping the breaker.
func (c *Client) read(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var notFound *domain.ErrNotFound
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			err := fn()
			if err != nil && errors.As(err, &notFound) {
				return nil
			}
			return err
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return err
	}
	if notFound != nil {
		return notFound
	}
	return nil
}

// write runs fn once under the bulkhead and circuit breaker. No retries:
// the caller cannot know whether a timed-out write landed.
func (c *Client) write(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var notFound *domain.ErrNotFound
	_, err := c.cb.Execute(func() (any, error) {
		err := fn()
		if err != nil && errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return err
	}
	if notFound != nil {
		return notFound
	}
	return nil
}

// fail normalizes a store error: domain errors pass through untouched so
// the handler layer can map them, everything else is counted and tagged
// with the sub-service that produced it.
func (c *Client) fail(service string, err error) error {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return err
	}
	var co *domain.ErrCircuitOpen
	if errors.As(err, &co) {
		return err
	}
	c.metrics.IncrExternalError(service)
	return &domain.ErrExternalService{Service: service, Err: err}
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// Ping verifies PostgREST is reachable and answering. Used by the health
// endpoints; deliberately cheap (limit=1, id column only).
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "projects?select=id&limit=1")
	if err != nil {
		return c.fail("supabase/ping", err)
	}
	return nil
}

// decodeRows unmarshals a PostgREST array response. A nil or empty body
// decodes to an empty slice.
func decodeRows[T any](body []byte) ([]T, error) {
	if body == nil || string(body) == "[]" {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}
