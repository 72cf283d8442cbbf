package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps Prometheus collectors for compose-bump. The process is
// one-shot, so there is no scrape endpoint; the registry is flushed to a
// textfile for the node-exporter textfile collector instead.
type Metrics struct {
	registry           *prometheus.Registry
	runsTotal          *prometheus.CounterVec
	lastRunTimestamp   prometheus.Gauge
	runDurationSeconds prometheus.Gauge
	healthAttempts     prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compose_bump_runs_total",
			Help: "Update runs by outcome.",
		}, []string{"outcome"}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compose_bump_last_run_timestamp",
			Help: "Unix timestamp of the last update run.",
		}),
		runDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compose_bump_run_duration_seconds",
			Help: "Duration of the last update run in seconds.",
		}),
		healthAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compose_bump_health_attempts",
			Help: "Health probes used by the last update run.",
		}),
	}

	registry.MustRegister(
		m.runsTotal,
		m.lastRunTimestamp,
		m.runDurationSeconds,
		m.healthAttempts,
	)

	return m
}

// RecordRun records the result of a completed run.
func (m *Metrics) RecordRun(outcome string, duration time.Duration, attempts int, finished time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.lastRunTimestamp.Set(float64(finished.Unix()))
	m.runDurationSeconds.Set(duration.Seconds())
	m.healthAttempts.Set(float64(attempts))
}

// WriteTextfile flushes the registry to path in the exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
