// Package metrics records installer runs as Prometheus metrics.
//
// A run is a one-shot process, so nothing is served over HTTP. The
// registry is written to a node-exporter textfile collector file at the
// end of the run when a path is configured.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stackprov"

// Phase results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder holds the run's metrics in a private registry. A nil
// *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	phaseTotal    *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	retriesTotal  *prometheus.CounterVec
	lastRun       *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
	releaseInfo   *prometheus.GaugeVec
}

// NewRecorder creates a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		phaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "phase",
				Name:      "runs_total",
				Help:      "Total number of phase executions by result",
			},
			[]string{"phase", "result"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "phase",
				Name:      "duration_seconds",
				Help:      "Duration of each phase in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
			},
			[]string{"phase"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retried operations",
			},
			[]string{"operation"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished, by result",
			},
			[]string{"result"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_success",
				Help:      "Whether the last run succeeded (1) or not (0)",
			},
		),
		releaseInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "release_info",
				Help:      "Installed release, always 1",
			},
			[]string{"repo", "tag"},
		),
	}

	r.registry.MustRegister(
		r.phaseTotal,
		r.phaseDuration,
		r.retriesTotal,
		r.lastRun,
		r.lastSuccess,
		r.releaseInfo,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordPhase records one phase execution.
func (r *Recorder) RecordPhase(phase, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.phaseTotal.WithLabelValues(phase, result).Inc()
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordRetry counts a retried operation.
func (r *Recorder) RecordRetry(operation string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(operation).Inc()
}

// RecordRelease marks the installed release.
func (r *Recorder) RecordRelease(repo, tag string) {
	if r == nil {
		return
	}
	r.releaseInfo.Reset()
	r.releaseInfo.WithLabelValues(repo, tag).Set(1)
}

// RecordRun records the end of a run.
func (r *Recorder) RecordRun(success bool, at time.Time) {
	if r == nil {
		return
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.lastRun.WithLabelValues(result).Set(float64(at.Unix()))
}

// WriteTextfile atomically writes the registry to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
