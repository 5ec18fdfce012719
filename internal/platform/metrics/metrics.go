package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SearchesTotal         *prometheus.CounterVec
	ConflictsTotal        *prometheus.CounterVec
	ConflictResolutions   *prometheus.CounterVec
	StepTransitions       *prometheus.CounterVec
	SubmissionsTotal      *prometheus.CounterVec
	PipelineStageFailures *prometheus.CounterVec
	LookupLatency         prometheus.Histogram
	RequestLatency        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_searches_total",
			Help: "Profile searches by reconciliation outcome (found, not_found, lookup_failed)",
		}, []string{"outcome"}),
		ConflictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_conflicts_total",
			Help: "Reconciliation conflicts surfaced to users by kind (email, card)",
		}, []string{"kind"}),
		ConflictResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_conflict_resolutions_total",
			Help: "User conflict choices (accepted, rejected)",
		}, []string{"choice"}),
		StepTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_wizard_step_transitions_total",
			Help: "Wizard step entries by destination step (search, user_data, address, medical_product, banking, confirmation)",
		}, []string{"step"}),
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_submissions_total",
			Help: "Contract submissions by result (submitted, failed)",
		}, []string{"result"}),
		PipelineStageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afilia_pipeline_stage_failures_total",
			Help: "Submission pipeline failures by stage (contract, sign, complete, log, email)",
		}, []string{"stage"}),
		LookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "afilia_cx_lookup_duration_ms",
			Help:    "Latency of CX profile lookups in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "afilia_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "path"}),
	}
}

// ObserveLookup records one CX lookup round trip.
func (m *Metrics) ObserveLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.LookupLatency.Observe(float64(d.Microseconds()) / 1000.0)
}
