package rbac

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for permission resolution.
type Metrics struct {
	decisions *prometheus.CounterVec
	resolves  *prometheus.HistogramVec
	cache     *prometheus.CounterVec
}

// NewMetrics registers the resolver collectors. A nil registerer uses the
// default Prometheus registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gameguild_authz_decisions_total",
		Help: "Authorization decisions partitioned by outcome.",
	}, []string{"outcome"})
	resolves := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gameguild_authz_resolve_duration_seconds",
		Help:    "Duration of permission resolution against the grant store.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"status"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gameguild_authz_cache_total",
		Help: "Resolve cache lookups partitioned by result.",
	}, []string{"result"})
	registerer.MustRegister(decisions, resolves, cache)
	return &Metrics{decisions: decisions, resolves: resolves, cache: cache}
}

func (m *Metrics) decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeResolve(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.resolves.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}
