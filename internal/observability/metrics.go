// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scoring service.
type Metrics struct {
	// Scoring metrics
	ScoresComputed prometheus.Counter
	ScoresByClass  *prometheus.CounterVec
	ScoreErrors    *prometheus.CounterVec
	ScoreLatency   prometheus.Histogram

	// Model lifecycle metrics
	ReloadsTotal       *prometheus.CounterVec
	RollbacksTotal     *prometheus.CounterVec
	ActiveModelVersion prometheus.Gauge
	LastReloadTime     prometheus.Gauge

	// Training metrics
	TrainingRunsTotal *prometheus.CounterVec
	TrainingDuration  prometheus.Histogram

	// Registry metrics
	RegistryPublishes prometheus.Counter
	RegistryQueryErrs *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_risk_lab"
	}

	return &Metrics{
		ScoresComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "scores_computed_total",
			Help:      "Total number of risk scores computed",
		}),
		ScoresByClass: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "scores_by_class_total",
			Help:      "Total number of scores by resulting risk class",
		}, []string{"risk_class"}),
		ScoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score_errors_total",
			Help:      "Total number of failed scoring calls by error type",
		}, []string{"error_type"}),
		ScoreLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score_latency_seconds",
			Help:      "Score computation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),

		ReloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "reloads_total",
			Help:      "Total number of model reload attempts by source and status",
		}, []string{"source", "status"}),
		RollbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "rollbacks_total",
			Help:      "Total number of rollback attempts by status",
		}, []string{"status"}),
		ActiveModelVersion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "active_version",
			Help:      "Version of the currently active model artifact",
		}),
		LastReloadTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "last_reload_timestamp",
			Help:      "Unix timestamp of last successful model reload",
		}),

		TrainingRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "runs_total",
			Help:      "Total number of training runs by status",
		}, []string{"status"}),
		TrainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Training run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),

		RegistryPublishes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "publishes_total",
			Help:      "Total number of artifacts published to the registry",
		}),
		RegistryQueryErrs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "query_errors_total",
			Help:      "Total number of registry query errors by operation",
		}, []string{"operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScore records one successful scoring call.
func RecordScore(riskClass string, seconds float64) {
	DefaultMetrics.ScoresComputed.Inc()
	DefaultMetrics.ScoresByClass.WithLabelValues(riskClass).Inc()
	DefaultMetrics.ScoreLatency.Observe(seconds)
}

// RecordScoreError records a failed scoring call.
func RecordScoreError(errorType string) {
	DefaultMetrics.ScoreErrors.WithLabelValues(errorType).Inc()
}

// RecordReload records a model reload attempt.
func RecordReload(source, status string, version int64, unixNow float64) {
	DefaultMetrics.ReloadsTotal.WithLabelValues(source, status).Inc()
	if status == "success" {
		DefaultMetrics.ActiveModelVersion.Set(float64(version))
		DefaultMetrics.LastReloadTime.Set(unixNow)
	}
}

// RecordRollback records a rollback attempt.
func RecordRollback(status string, version int64) {
	DefaultMetrics.RollbacksTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.ActiveModelVersion.Set(float64(version))
	}
}

// SetActiveVersion updates the active model version gauge.
func SetActiveVersion(version int64) {
	DefaultMetrics.ActiveModelVersion.Set(float64(version))
}

// RecordTrainingRun records a training run.
func RecordTrainingRun(status string, durationSeconds float64) {
	DefaultMetrics.TrainingRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.TrainingDuration.Observe(durationSeconds)
}

// RecordRegistryPublish records an artifact publish.
func RecordRegistryPublish() {
	DefaultMetrics.RegistryPublishes.Inc()
}

// RecordRegistryError records a registry query error.
func RecordRegistryError(operation string) {
	DefaultMetrics.RegistryQueryErrs.WithLabelValues(operation).Inc()
}
