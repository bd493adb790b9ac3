package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsExportsRunsAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1772582400, 0) }

	job := "relationship-sync"
	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncFailure(job)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	success, err := fetchValue(mfs, "cron_job_runs_total", map[string]string{"job": job, "result": "success"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, success)

	failure, err := fetchValue(mfs, "cron_job_runs_total", map[string]string{"job": job, "result": "failure"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, failure)

	stamp, err := fetchValue(mfs, "cron_job_last_success_timestamp_seconds", map[string]string{"job": job})
	require.NoError(t, err)
	assert.Equal(t, 1772582400.0, stamp)

	sum, err := fetchValue(mfs, "cron_job_duration_seconds", map[string]string{"job": job})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sum, 0.0001)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveDuration("x", time.Second)
	m.IncSuccess("x")
	m.IncFailure("x")

	unregistered := NewCronJobMetrics(nil)
	unregistered.IncSuccess("")
}

func fetchValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if !matchesLabels(metric.GetLabel(), labels) {
			continue
		}
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			return metric.GetCounter().GetValue(), nil
		case dto.MetricType_GAUGE:
			return metric.GetGauge().GetValue(), nil
		case dto.MetricType_HISTOGRAM:
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
