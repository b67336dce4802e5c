// Package client is the typed API surface over the restaurant backend.
// Reads go through the remote data cache; writes invalidate the tags they
// touch so dependent reads refresh without manual refetch code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"savora/internal/cache"
	cachemetrics "savora/internal/cache/metrics"
	"savora/internal/platform/config"
	"savora/internal/session"
	"savora/internal/transport"
	transportmetrics "savora/internal/transport/metrics"
	"savora/pkg/apierrors"
)

// Cache tags. A query provides the tags of the data it reads; a mutation
// invalidates the tags of the data it writes.
const (
	TagProducts   cache.Tag = "Products"
	TagCategories cache.Tag = "Categories"
	TagCart       cache.Tag = "Cart"
	TagOrders     cache.Tag = "Orders"
	TagUsers      cache.Tag = "Users"
)

// Client talks to one backend on behalf of both identities.
type Client struct {
	baseURL      string
	http         *http.Client
	cache        *cache.Store
	sessions     *session.Store
	timeout      time.Duration
	taxRate      float64
	tracer       trace.Tracer
	log          *slog.Logger
	cacheMetrics *cachemetrics.Metrics
	guardMetrics *transportmetrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The caller owns installing a
// guard transport when providing one.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache overrides the data cache.
func WithCache(store *cache.Store) Option {
	return func(c *Client) { c.cache = store }
}

// WithTracer overrides the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics registers Prometheus collectors on the default registry and
// wires them into the cache and the guard transport. Register at most once
// per process; serve them with promhttp.
func WithMetrics() Option {
	return func(c *Client) {
		c.cacheMetrics = cachemetrics.New()
		c.guardMetrics = transportmetrics.New()
	}
}

// New builds a client from config. The session store is shared with the
// guard transport so a 401 observed here clears the right identity.
func New(cfg config.Client, sessions *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  cfg.BaseURL,
		sessions: sessions,
		timeout:  cfg.RequestTimeout,
		taxRate:  cfg.TaxRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		guard := transport.NewGuard(sessions,
			transport.WithFallbackPolicy(transport.FallbackPolicy(cfg.TokenFallback)),
			transport.WithMetrics(c.guardMetrics),
			transport.WithLogger(c.log),
		)
		c.http = &http.Client{Transport: guard}
	}
	if c.cache == nil {
		c.cache = cache.NewStore(
			cache.WithMetrics(c.cacheMetrics),
			cache.WithLogger(c.log),
		)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("savora/client")
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultRequestTimeout
	}
	// Zero is a real rate (tax-free region); only a negative value means
	// unset. FromEnv never produces a negative rate.
	if c.taxRate < 0 {
		c.taxRate = config.DefaultTaxRate
	}
	return c
}

// Cache exposes the underlying store for subscriptions.
func (c *Client) Cache() *cache.Store {
	return c.cache
}

// Sessions exposes the shared session store.
func (c *Client) Sessions() *session.Store {
	return c.sessions
}

// TaxRate returns the configured tax rate for order totals.
func (c *Client) TaxRate() float64 {
	return c.taxRate
}

// do performs one HTTP round trip: scope marking, client-side timeout,
// span, error decoding, JSON decoding. Every operation funnels through it.
func (c *Client) do(ctx context.Context, scope session.Scope, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = transport.WithScope(ctx, scope)

	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("savora.scope", string(scope)),
	))
	err := c.roundTrip(ctx, method, path, query, body, contentType, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apierrors.Wrap(err, apierrors.CodeTimeout, "request timed out")
		}
		if errors.Is(err, context.Canceled) {
			return apierrors.Wrap(err, apierrors.CodeTransport, "request canceled")
		}
		return apierrors.Wrap(err, apierrors.CodeTransport, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "decode response")
	}
	return nil
}

// decodeError unwraps the backend's {"message": ...} failure body, falling
// back to the status text when the body is absent or malformed.
func decodeError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		_ = json.Unmarshal(data, &payload)
	}
	return apierrors.FromStatus(resp.StatusCode, payload.Message)
}

func (c *Client) get(ctx context.Context, scope session.Scope, path string, query url.Values, out any) error {
	return c.do(ctx, scope, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, scope session.Scope, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, scope, http.MethodPost, path, nil, body, "application/json", out)
}

func (c *Client) patchJSON(ctx context.Context, scope session.Scope, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, scope, http.MethodPatch, path, nil, body, "application/json", out)
}

func (c *Client) deleteJSON(ctx context.Context, scope session.Scope, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := encodeJSON(in)
		if err != nil {
			return err
		}
		body = b
		contentType = "application/json"
	}
	return c.do(ctx, scope, http.MethodDelete, path, nil, body, contentType, out)
}

func encodeJSON(in any) (io.Reader, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "encode request body")
	}
	return bytes.NewReader(data), nil
}

// queryAs runs a cached read and narrows the stored value to its type.
func queryAs[T any](ctx context.Context, c *Client, key cache.Key, tags []cache.Tag, fetch cache.FetchFunc) (T, error) {
	var zero T
	v, err := c.cache.Query(ctx, key, tags, fetch)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, apierrors.New(apierrors.CodeInternal,
			fmt.Sprintf("cache entry for %s holds %T", key.Endpoint, v))
	}
	return typed, nil
}
