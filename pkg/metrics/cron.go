package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// CronJobMetrics records duration, outcome and freshness of scheduled jobs.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "cron_job_duration_seconds",
		Help: "Duration of cron jobs in seconds.",
		// A relationship sync spans seconds to tens of minutes.
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Cron job executions by result.",
	}, []string{"job", "result"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cron_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per job.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, lastSuccess)
	return &CronJobMetrics{
		duration:    duration,
		runs:        runs,
		lastSuccess: lastSuccess,
		now:         time.Now,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess counts a successful run and stamps the freshness gauge.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.runs == nil {
		return
	}
	label := normalizeLabel(job)
	c.runs.WithLabelValues(label, resultSuccess).Inc()
	c.lastSuccess.WithLabelValues(label).Set(float64(c.now().Unix()))
}

// IncFailure counts a failed run.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), resultFailure).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
