package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	JobRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hostsgen_job_running",
		Help: "1 while a download or update job is running",
	})
	JobProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hostsgen_job_progress",
		Help: "Progress of the current job (0-100)",
	})
)

// Counters
var (
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsgen_jobs_total",
		Help: "Finished jobs by kind and outcome",
	}, []string{"kind", "outcome"})
	JobsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostsgen_jobs_rejected_total",
		Help: "Job starts rejected because a job was already running",
	})
	SourceDownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsgen_source_downloads_total",
		Help: "Source downloads by source and outcome",
	}, []string{"source", "outcome"})
	SourceBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsgen_source_bytes_total",
		Help: "Bytes downloaded per source",
	}, []string{"source"})
	GeneratedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostsgen_generated_files_total",
		Help: "Hosts files generated",
	})
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsgen_http_requests_total",
		Help: "API requests by route and status code",
	}, []string{"route", "code"})
)

// Histograms
var (
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostsgen_job_duration_seconds",
		Help:    "Job duration in seconds by kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 180},
	}, []string{"kind"})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps a boolean result to its label value.
func Outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
