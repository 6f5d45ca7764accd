// Package metrics exposes Prometheus counters for index synchronization and search.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billsync"

// Rebuild outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty_store"
	OutcomeFailed  = "failed"
	OutcomeBusy    = "in_progress"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	BillsIndexed    prometheus.Counter
	BillsDeleted    prometheus.Counter
	BillsMissing    prometheus.Counter
	Rebuilds        *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	Searches        *prometheus.CounterVec
	Events          *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BillsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "bills_indexed_total",
			Help:      "Bills upserted into the search index.",
		}),
		BillsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "bills_deleted_total",
			Help:      "Ineligible bills removed from the search index.",
		}),
		BillsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "bills_missing_total",
			Help:      "Bill ids listed by the store that could not be loaded during a rebuild.",
		}),
		Rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "runs_total",
			Help:      "Index rebuilds by outcome.",
		}, []string{"outcome"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "duration_seconds",
			Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 300, 900, 1800},
		}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by call shape and outcome.",
		}, []string{"kind", "outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Bus events handled by the index engine.",
		}, []string{"event"}),
	}
	m.registry.MustRegister(
		m.BillsIndexed,
		m.BillsDeleted,
		m.BillsMissing,
		m.Rebuilds,
		m.RebuildDuration,
		m.Searches,
		m.Events,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRebuild records one finished rebuild.
func (m *Metrics) ObserveRebuild(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Rebuilds.WithLabelValues(outcome).Inc()
	m.RebuildDuration.Observe(d.Seconds())
}

// ObserveSearch records one search call.
func (m *Metrics) ObserveSearch(kind, outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(kind, outcome).Inc()
}

// ObserveEvent records one handled bus event.
func (m *Metrics) ObserveEvent(name string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(name).Inc()
}

// AddIndexed adds n upserted bills.
func (m *Metrics) AddIndexed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BillsIndexed.Add(float64(n))
}

// AddDeleted adds n deleted bills.
func (m *Metrics) AddDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BillsDeleted.Add(float64(n))
}

// AddMissing adds n bills that were listed but not found.
func (m *Metrics) AddMissing(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BillsMissing.Add(float64(n))
}
