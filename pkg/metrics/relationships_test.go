package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipSyncMetricsObserveWrite(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelationshipSyncMetrics(reg)

	m.ObserveWrite("bigquery", 4, 1)
	m.AddDiscarded("pharmacy_not_found", 3)
	m.AddDiscarded("no_relationships", 0)
	m.IncRun("partial")

	assert.Equal(t, 4.0, testutil.ToFloat64(m.processed.WithLabelValues("bigquery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("bigquery")))
	assert.Equal(t, 0.2, testutil.ToFloat64(m.skipRatio))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.discarded.WithLabelValues("pharmacy_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("partial")))

	count, err := testutil.GatherAndCount(reg, "relationship_records_discarded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRelationshipSyncMetricsNilSafe(t *testing.T) {
	var m *RelationshipSyncMetrics
	m.ObserveWrite("x", 1, 1)
	m.AddDiscarded("x", 1)
	m.IncRun("x")

	empty := NewRelationshipSyncMetrics(nil)
	empty.ObserveWrite("x", 1, 1)
}

func TestSkipRatio(t *testing.T) {
	assert.Equal(t, 0.0, SkipRatio(0, 0))
	assert.Equal(t, 0.5, SkipRatio(2, 2))
	assert.Equal(t, 1.0, SkipRatio(0, 5))
}

func TestCronJobMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.IncSuccess("relationship-sync")
	m.IncFailure("")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("relationship-sync", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("unknown", resultFailure)))
	assert.Zero(t, testutil.ToFloat64(m.runs.WithLabelValues("relationship-sync", resultFailure)))
}
