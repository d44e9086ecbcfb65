// Package metrics defines the Prometheus metric collectors of the enumeration engine
// and exposes an HTTP handler for scraping.
//
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sparsenum"

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	CandidatesTotal    *prometheus.CounterVec
	QueryHeapsTotal    *prometheus.CounterVec
	CacheEntriesTotal  *prometheus.CounterVec
	LocalConfsTotal    *prometheus.CounterVec
	ResultsTotal       *prometheus.CounterVec
	PreprocessDuration prometheus.Histogram
	NextBestDuration   prometheus.Histogram
}

// New creates all collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Candidates handled by query heaps, by outcome (popped, reinserted, dropped).",
			},
			[]string{"outcome"},
		),
		QueryHeapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_heaps_total",
				Help:      "Query heaps cloned from templates, by node.",
			},
			[]string{"node"},
		),
		CacheEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_entries_total",
				Help:      "Subtree completions memoized in shared caches, by node.",
			},
			[]string{"node"},
		),
		LocalConfsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "local_conformations_total",
				Help:      "Local combinations processed while building templates, by node.",
			},
			[]string{"node"},
		),
		ResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "results_total",
				Help:      "Results returned to callers, by kind (conformation, sequence).",
			},
			[]string{"kind"},
		),
		PreprocessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "preprocess_duration_seconds",
				Help:      "Time spent building template heaps.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		NextBestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "next_best_duration_seconds",
				Help:      "Latency of a single next best request.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}

	reg.MustRegister(
		m.CandidatesTotal,
		m.QueryHeapsTotal,
		m.CacheEntriesTotal,
		m.LocalConfsTotal,
		m.ResultsTotal,
		m.PreprocessDuration,
		m.NextBestDuration,
	)

	return m
}

// Candidate counts a candidate outcome.
func (m *Metrics) Candidate(outcome string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome).Inc()
}

// QueryHeap counts the creation of a query heap at node.
func (m *Metrics) QueryHeap(node int) {
	if m == nil {
		return
	}
	m.QueryHeapsTotal.WithLabelValues(strconv.Itoa(node)).Inc()
}

// CacheEntry counts a completion memoized at node.
func (m *Metrics) CacheEntry(node int) {
	if m == nil {
		return
	}
	m.CacheEntriesTotal.WithLabelValues(strconv.Itoa(node)).Inc()
}

// LocalConf counts a local combination processed at node.
func (m *Metrics) LocalConf(node int) {
	if m == nil {
		return
	}
	m.LocalConfsTotal.WithLabelValues(strconv.Itoa(node)).Inc()
}

// Result counts a result of the given kind.
func (m *Metrics) Result(kind string) {
	if m == nil {
		return
	}
	m.ResultsTotal.WithLabelValues(kind).Inc()
}

// ObservePreprocess records the duration of a preprocessing started at start.
func (m *Metrics) ObservePreprocess(start time.Time) {
	if m == nil {
		return
	}
	m.PreprocessDuration.Observe(time.Since(start).Seconds())
}

// ObserveNextBest records the duration of a next best request started at start.
func (m *Metrics) ObserveNextBest(start time.Time) {
	if m == nil {
		return
	}
	m.NextBestDuration.Observe(time.Since(start).Seconds())
}

// Handler returns the Prometheus scrape HTTP handler for the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
