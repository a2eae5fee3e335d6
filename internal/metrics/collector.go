// Package metrics tracks routing outcomes per dispatch mode so discovered
// routing can be compared against the legacy table during rollout.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mode identifies which dispatch path served a request.
type Mode string

const (
	// ModeDiscovered means the registry-built route table served the request.
	ModeDiscovered Mode = "discovered"

	// ModeFallback means the legacy static table served the request.
	ModeFallback Mode = "fallback"
)

// modeCounters accumulates per-mode totals. Atomics keep the hot path
// lock-free; Reset only zeroes these, never the Prometheus series.
type modeCounters struct {
	requests  atomic.Int64
	successes atomic.Int64
	errors    atomic.Int64
	latencyNS atomic.Int64
}

func (c *modeCounters) record(success bool, elapsed time.Duration) {
	c.requests.Add(1)
	if success {
		c.successes.Add(1)
	} else {
		c.errors.Add(1)
	}
	c.latencyNS.Add(int64(elapsed))
}

func (c *modeCounters) reset() {
	c.requests.Store(0)
	c.successes.Store(0)
	c.errors.Store(0)
	c.latencyNS.Store(0)
}

func (c *modeCounters) snapshot() ModeSnapshot {
	s := ModeSnapshot{
		Requests:  c.requests.Load(),
		Successes: c.successes.Load(),
		Errors:    c.errors.Load(),
	}
	s.TotalTimeMS = float64(c.latencyNS.Load()) / float64(time.Millisecond)
	if s.Requests > 0 {
		s.AvgTimeMS = s.TotalTimeMS / float64(s.Requests)
	}
	return s
}

// ModeSnapshot is a point-in-time view of one dispatch mode's counters.
type ModeSnapshot struct {
	Requests    int64   `json:"requests"`
	Successes   int64   `json:"successes"`
	Errors      int64   `json:"errors"`
	TotalTimeMS float64 `json:"total_time_ms"`
	AvgTimeMS   float64 `json:"avg_time_ms"`
}

// SuccessRatePercent returns the share of successful requests, or 0 when no
// requests were recorded.
func (s ModeSnapshot) SuccessRatePercent() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Requests) * 100
}

// Comparison summarizes discovered vs fallback routing for rollout review.
type Comparison struct {
	DiscoveredSuccessRatePercent float64 `json:"discovered_success_rate_percent"`
	FallbackSuccessRatePercent   float64 `json:"fallback_success_rate_percent"`
	FallbackActivations          int64   `json:"fallback_activations"`
}

// Snapshot is the full metrics view served on the ops surface.
type Snapshot struct {
	Discovered ModeSnapshot `json:"discovered"`
	Fallback   ModeSnapshot `json:"fallback"`
	Comparison Comparison   `json:"comparison"`
	LastReset  time.Time    `json:"last_reset"`
}

// Collector records routing outcomes. The snapshot counters are resettable
// for rollout comparisons; the Prometheus series stay cumulative.
type Collector struct {
	discovered modeCounters
	fallback   modeCounters

	fallbackActivations atomic.Int64
	lastReset           atomic.Int64

	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	activations   prometheus.Counter
}

// NewCollector creates a collector registering its series with reg. A nil
// registerer keeps the series unregistered, which is convenient in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routegate",
			Name:      "requests_total",
			Help:      "Routed requests by dispatch mode and outcome.",
		}, []string{"mode", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routegate",
			Name:      "request_duration_seconds",
			Help:      "Request latency by dispatch mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		activations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routegate",
			Name:      "fallback_activations_total",
			Help:      "Times the gateway fell back to the legacy table.",
		}),
	}
	c.lastReset.Store(time.Now().UnixNano())
	return c
}

// Record accounts one completed request.
func (c *Collector) Record(mode Mode, success bool, elapsed time.Duration) {
	switch mode {
	case ModeFallback:
		c.fallback.record(success, elapsed)
	default:
		c.discovered.record(success, elapsed)
	}

	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.requestsTotal.WithLabelValues(string(mode), outcome).Inc()
	c.latency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

// RecordFallbackActivation counts one switch from discovered dispatch to the
// legacy table.
func (c *Collector) RecordFallbackActivation() {
	c.fallbackActivations.Add(1)
	c.activations.Inc()
}

// Snapshot returns the current resettable counters.
func (c *Collector) Snapshot() Snapshot {
	discovered := c.discovered.snapshot()
	fallback := c.fallback.snapshot()
	return Snapshot{
		Discovered: discovered,
		Fallback:   fallback,
		Comparison: Comparison{
			DiscoveredSuccessRatePercent: discovered.SuccessRatePercent(),
			FallbackSuccessRatePercent:   fallback.SuccessRatePercent(),
			FallbackActivations:          c.fallbackActivations.Load(),
		},
		LastReset: time.Unix(0, c.lastReset.Load()).UTC(),
	}
}

// Reset zeroes the snapshot counters. Prometheus series are cumulative and
// unaffected.
func (c *Collector) Reset() {
	c.discovered.reset()
	c.fallback.reset()
	c.fallbackActivations.Store(0)
	c.lastReset.Store(time.Now().UnixNano())
}
