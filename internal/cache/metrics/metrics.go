package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the remote data cache.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Coalesced     prometheus.Counter
	Invalidations *prometheus.CounterVec
	Refetches     prometheus.Counter
	Entries       prometheus.Gauge
}

// New registers and returns cache metrics collectors.
func New() *Metrics {
	return &Metrics{
		Hits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savora_cache_hits_total",
			Help: "Total number of reads served from the cache",
		}),
		Misses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savora_cache_misses_total",
			Help: "Total number of reads that went to the network",
		}),
		Coalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savora_cache_coalesced_total",
			Help: "Total number of callers that shared an in-flight request",
		}),
		Invalidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_cache_invalidations_total",
			Help: "Total number of tag invalidations published by mutations",
		}, []string{"tag"}),
		Refetches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savora_cache_refetches_total",
			Help: "Total number of subscribed entries re-fetched after invalidation",
		}),
		Entries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "savora_cache_entries",
			Help: "Current number of cached entries",
		}),
	}
}

func (m *Metrics) IncrementHits()      { m.Hits.Inc() }
func (m *Metrics) IncrementMisses()    { m.Misses.Inc() }
func (m *Metrics) IncrementCoalesced() { m.Coalesced.Inc() }
func (m *Metrics) IncrementRefetches() { m.Refetches.Inc() }

func (m *Metrics) IncrementInvalidations(tag string) {
	m.Invalidations.WithLabelValues(tag).Inc()
}

func (m *Metrics) SetEntries(n int) {
	m.Entries.Set(float64(n))
}
