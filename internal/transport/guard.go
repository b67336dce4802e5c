// Package transport implements the request guard: an http.RoundTripper
// that attaches the bearer token for the request's scope and reacts to a
// 401 by clearing exactly the session that supplied the token.
package transport

import (
	"log/slog"
	"net/http"

	"savora/internal/session"
	"savora/internal/transport/metrics"
)

// Guard wraps a base RoundTripper. It is stateless beyond reading the
// session store at call time and never retries a failed request; the
// caller observes the 401 as a normal error after the logout fires.
type Guard struct {
	base     http.RoundTripper
	sessions *session.Store
	fallback FallbackPolicy
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithBase sets the underlying RoundTripper. Defaults to
// http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(g *Guard) { g.base = rt }
}

// WithFallbackPolicy sets the token choice for unscoped requests.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(g *Guard) { g.fallback = p }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithLogger sets the logger for forced-logout events.
func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) { g.log = log }
}

// NewGuard builds a guard over the given session store.
func NewGuard(sessions *session.Store, opts ...Option) *Guard {
	g := &Guard{
		base:     http.DefaultTransport,
		sessions: sessions,
		fallback: PreferUser,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RoundTrip implements http.RoundTripper.
func (g *Guard) RoundTrip(req *http.Request) (*http.Response, error) {
	token, owner, attached := g.resolveToken(req)
	if attached {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
		if g.metrics != nil {
			g.metrics.IncrementTokensAttached(string(owner))
		}
	}

	resp, err := g.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && attached {
		if g.metrics != nil {
			g.metrics.IncrementUnauthorized(string(owner))
		}
		// One dispatch per 401, against the session that supplied the
		// token. Logout itself is idempotent.
		g.sessions.Logout(owner)
		if g.metrics != nil {
			g.metrics.IncrementForcedLogouts(string(owner))
		}
		if g.log != nil {
			g.log.Warn("session cleared after 401",
				"scope", owner,
				"path", req.URL.Path,
			)
		}
	}

	return resp, nil
}

// resolveToken picks the token for the request: the explicit scope when
// set, otherwise the fallback policy order.
func (g *Guard) resolveToken(req *http.Request) (string, session.Scope, bool) {
	if scope, ok := ScopeFromContext(req.Context()); ok {
		token, ok := g.sessions.Token(scope)
		return token, scope, ok
	}
	for _, scope := range g.fallback.order() {
		if token, ok := g.sessions.Token(scope); ok {
			return token, scope, true
		}
	}
	return "", "", false
}
