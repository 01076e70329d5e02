// Package metrics exposes engine counters to Prometheus.
//
// A nil *Metrics is valid and records nothing, so library users that do not
// scrape metrics pay nothing beyond a nil check.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tabled"

// Metrics holds the engine's collectors.
type Metrics struct {
	cacheLookups *prometheus.CounterVec
	cycles       prometheus.Counter
	overflows    prometheus.Counter
	flattens     *prometheus.CounterVec
	evictions    *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
}

// New registers the collectors on reg. A nil reg creates unregistered
// collectors, which is what tests use.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_lookups_total",
			Help:      "Memo table lookups by outcome.",
		}, []string{"outcome"}),
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Calls found active on the evaluation stack.",
		}),
		overflows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "depth_overflows_total",
			Help:      "Calls that reached the depth limit.",
		}),
		flattens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flattens_total",
			Help:      "Bottom-up flatten passes by outcome.",
		}, []string{"outcome"}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_evictions_total",
			Help:      "Cold generation evictions by outcome.",
		}, []string{"outcome"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) Cycle() {
	if m != nil {
		m.cycles.Inc()
	}
}

func (m *Metrics) Overflow() {
	if m != nil {
		m.overflows.Inc()
	}
}

// Flatten records a flatten pass; resolved is false when it gave up.
func (m *Metrics) Flatten(resolved bool) {
	if m != nil {
		m.flattens.WithLabelValues(outcome(resolved)).Inc()
	}
}

// Eviction records a finished eviction.
func (m *Metrics) Eviction(err error) {
	if m != nil {
		m.evictions.WithLabelValues(outcome(err == nil)).Inc()
	}
}

// Run records a finished run.
func (m *Metrics) Run(d time.Duration, err error) {
	if m != nil {
		m.runs.WithLabelValues(outcome(err == nil)).Inc()
		m.runDuration.Observe(d.Seconds())
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
