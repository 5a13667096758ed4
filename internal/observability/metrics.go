package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	gradingRunsTotal    *prometheus.CounterVec
	gradingRunSeconds   prometheus.Histogram
	gradingCaseVerdicts *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API and the
// grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_runs_total",
			Help: "Total number of grading runs by outcome.",
		}, []string{"outcome"})

		gradingRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_run_duration_seconds",
			Help:    "Wall-clock duration of grading runs, dispatch to recorded outcome.",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
		})

		gradingCaseVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_case_verdicts_total",
			Help: "Total number of per-test-case verdicts by judge status.",
		}, []string{"status"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingRunsTotal,
			gradingRunSeconds,
			gradingCaseVerdicts,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingRuns exposes the counter for grading run outcomes.
func GradingRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}

// GradingRunDuration exposes the grading run duration histogram.
func GradingRunDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingRunSeconds
}

// GradingCaseVerdicts exposes the per-case verdict counter.
func GradingCaseVerdicts() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingCaseVerdicts
}
