// Package metrics collects pipeline metrics into a Prometheus registry.
//
// A nil *Metrics is a valid no-op recorder, so one-shot CLI runs and tests
// can skip registration entirely; only the serve daemon exposes /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	companiesDiscovered *prometheus.CounterVec
	detections          *prometheus.CounterVec
	runs                *prometheus.CounterVec
	prioritiesUpdated   prometheus.Counter
	runDuration         prometheus.Histogram
	probeDuration       prometheus.Histogram
	probesInFlight      prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		companiesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hirelens_companies_discovered_total",
			Help: "Companies reported by discovery sources, after dedup, by source.",
		}, []string{"source"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hirelens_detections_total",
			Help: "Successful ATS platform detections by vendor and method.",
		}, []string{"vendor", "method"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hirelens_runs_total",
			Help: "Completed pipeline runs by status.",
		}, []string{"status"}),
		prioritiesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hirelens_priorities_updated_total",
			Help: "Companies whose priority tier or growth score changed.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hirelens_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hirelens_probe_duration_seconds",
			Help:    "Duration of careers-page probes.",
			Buckets: prometheus.DefBuckets,
		}),
		probesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hirelens_probes_in_flight",
			Help: "Careers-page probes currently executing.",
		}),
	}

	m.registry.MustRegister(
		m.companiesDiscovered,
		m.detections,
		m.runs,
		m.prioritiesUpdated,
		m.runDuration,
		m.probeDuration,
		m.probesInFlight,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDiscovered counts deduplicated companies attributed to a source.
func (m *Metrics) RecordDiscovered(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.companiesDiscovered.WithLabelValues(source).Add(float64(n))
}

// RecordDetection counts one successful platform detection.
func (m *Metrics) RecordDetection(vendor, method string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(vendor, method).Inc()
}

// RecordRun counts a completed run and observes its duration.
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// RecordPriorityUpdates counts applied priority changes.
func (m *Metrics) RecordPriorityUpdates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.prioritiesUpdated.Add(float64(n))
}

// StartProbe marks a probe as in flight and returns a done func that
// observes its duration. Safe to call on a nil receiver.
func (m *Metrics) StartProbe() func() {
	if m == nil {
		return func() {}
	}
	m.probesInFlight.Inc()
	start := time.Now()
	return func() {
		m.probesInFlight.Dec()
		m.probeDuration.Observe(time.Since(start).Seconds())
	}
}
