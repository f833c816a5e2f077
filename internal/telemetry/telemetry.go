// Package telemetry holds the process-wide Prometheus registry: job
// outcome counters, scheduler queue depth, and downloader retries. It is
// shared between the components that produce these numbers (orchestrator,
// scheduler, fetch) and the API surface that exposes them at GET /metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	registry *prometheus.Registry

	JobsTotal         *prometheus.CounterVec
	JobRowsWritten    *prometheus.CounterVec
	SchedulerQueue    prometheus.Gauge
	DownloaderRetries *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		registry: reg,
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nyiso_jobs_total",
				Help: "Total number of scrape jobs by source and terminal status",
			},
			[]string{"source_code", "status"},
		),
		JobRowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nyiso_job_rows_written_total",
				Help: "Total rows inserted or updated by source",
			},
			[]string{"source_code", "operation"},
		),
		SchedulerQueue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nyiso_scheduler_queue_depth",
				Help: "Number of sources currently pending their next fire",
			},
		),
		DownloaderRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nyiso_downloader_retries_total",
				Help: "Total HTTP retry attempts by source",
			},
			[]string{"source_code"},
		),
	}

	reg.MustRegister(m.JobsTotal, m.JobRowsWritten, m.SchedulerQueue, m.DownloaderRetries)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordJob records one terminal job outcome.
func (m *Registry) RecordJob(sourceCode, status string, inserted, updated int) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(sourceCode, status).Inc()
	if inserted > 0 {
		m.JobRowsWritten.WithLabelValues(sourceCode, "insert").Add(float64(inserted))
	}
	if updated > 0 {
		m.JobRowsWritten.WithLabelValues(sourceCode, "update").Add(float64(updated))
	}
}

// SetQueueDepth reports the scheduler's current pending-fire count.
func (m *Registry) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.SchedulerQueue.Set(float64(depth))
}

// RecordRetry records one HTTP retry attempt for sourceCode.
func (m *Registry) RecordRetry(sourceCode string) {
	if m == nil {
		return
	}
	m.DownloaderRetries.WithLabelValues(sourceCode).Inc()
}
