package prober

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"edgepick/internal/models"
)

// Metrics collects probe counters and latency histograms. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	attempts     *prometheus.CounterVec
	results      *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
}

// NewMetrics registers the probe metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepick_probe_attempts_total",
				Help: "Strategy attempts by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepick_probe_results_total",
				Help: "Probe verdicts per endpoint",
			},
			[]string{"endpoint", "healthy"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgepick_probe_latency_seconds",
				Help:    "Latency of healthy probes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		scans: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgepick_scans_total",
			Help: "Completed scans",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgepick_scan_duration_seconds",
			Help:    "Wall time of a full scan",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeAttempt(strategy, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) observeResult(r models.ProbeResult) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(r.Endpoint, strconv.FormatBool(r.Healthy)).Inc()
	if r.Healthy {
		m.latency.WithLabelValues(r.Endpoint).Observe(r.Latency.Seconds())
	}
}

func (m *Metrics) observeScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scans.Inc()
	m.scanDuration.Observe(d.Seconds())
}
