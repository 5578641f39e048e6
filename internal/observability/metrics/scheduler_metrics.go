package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeUnknown          = "unknown"
)

// SchedulerMetrics captures pricing batch job health signals.
type SchedulerMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
	itemsFailed    *prometheus.CounterVec
	runLoopLag     prometheus.Observer
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = &SchedulerMetrics{
			jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "voyara_scheduler_job_runs_total",
				Help: "Scheduler job executions by job name.",
			}, []string{"job"}),
			jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "voyara_scheduler_job_duration_seconds",
				Help:    "Scheduler job wall-clock duration.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			}, []string{"job"}),
			jobTimeouts: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "voyara_scheduler_job_timeouts_total",
				Help: "Scheduler jobs that hit their wall-clock budget.",
			}, []string{"job"}),
			jobErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "voyara_scheduler_job_errors_total",
				Help: "Scheduler job errors by job name and error type.",
			}, []string{"job", "error_type"}),
			itemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "voyara_scheduler_items_processed_total",
				Help: "Per-item successes inside batch jobs.",
			}, []string{"job"}),
			itemsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "voyara_scheduler_items_failed_total",
				Help: "Per-item failures inside batch jobs.",
			}, []string{"job"}),
			runLoopLag: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "voyara_scheduler_run_loop_lag_seconds",
				Help:    "Delay between the scheduled tick and the actual run.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			}),
		}
	})
	return schedulerMetrics
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, classifyError(err)).Inc()
}

func (m *SchedulerMetrics) AddItemsProcessed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsProcessed.WithLabelValues(job).Add(float64(count))
}

func (m *SchedulerMetrics) AddItemsFailed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsFailed.WithLabelValues(job).Add(float64(count))
}

func (m *SchedulerMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil {
		return
	}
	m.runLoopLag.Observe(lag.Seconds())
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SchedulerErrorTypeDeadlineExceeded
	}
	return SchedulerErrorTypeUnknown
}
