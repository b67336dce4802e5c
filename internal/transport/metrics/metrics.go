package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the request guard.
type Metrics struct {
	TokensAttached        *prometheus.CounterVec
	UnauthorizedResponses *prometheus.CounterVec
	ForcedLogouts         *prometheus.CounterVec
}

// New registers and returns guard metrics collectors.
func New() *Metrics {
	return &Metrics{
		TokensAttached: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_tokens_attached_total",
			Help: "Total number of requests that left with a bearer token",
		}, []string{"scope"}),
		UnauthorizedResponses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_unauthorized_responses_total",
			Help: "Total number of 401 responses observed by the guard",
		}, []string{"scope"}),
		ForcedLogouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_forced_logouts_total",
			Help: "Total number of logouts dispatched after a 401",
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncrementTokensAttached(scope string) {
	m.TokensAttached.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncrementUnauthorized(scope string) {
	m.UnauthorizedResponses.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncrementForcedLogouts(scope string) {
	m.ForcedLogouts.WithLabelValues(scope).Inc()
}
