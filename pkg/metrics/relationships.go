package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RelationshipSyncMetrics records the outcome of relationship snapshot runs.
type RelationshipSyncMetrics struct {
	processed *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	discarded *prometheus.CounterVec
	skipRatio prometheus.Gauge
	runs      *prometheus.CounterVec
}

// NewRelationshipSyncMetrics registers the sync metrics on the provided registerer.
func NewRelationshipSyncMetrics(reg prometheus.Registerer) *RelationshipSyncMetrics {
	if reg == nil {
		return &RelationshipSyncMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_rows_processed_total",
		Help: "Relationship snapshot rows inserted.",
	}, []string{"source"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_rows_skipped_total",
		Help: "Relationship snapshot rows that failed to insert or were dropped by an aborted run.",
	}, []string{"source"})
	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_records_discarded_total",
		Help: "Raw order records excluded from aggregation, by reason.",
	}, []string{"reason"})
	skipRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relationship_skip_ratio",
		Help: "Skipped / (processed + skipped) for the most recent run.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_sync_runs_total",
		Help: "Relationship sync runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(processed, skipped, discarded, skipRatio, runs)
	return &RelationshipSyncMetrics{
		processed: processed,
		skipped:   skipped,
		discarded: discarded,
		skipRatio: skipRatio,
		runs:      runs,
	}
}

// ObserveWrite records processed/skipped counts for one run and updates the ratio gauge.
func (m *RelationshipSyncMetrics) ObserveWrite(source string, processed, skipped int) {
	if m == nil || m.processed == nil {
		return
	}
	label := normalizeLabel(source)
	m.processed.WithLabelValues(label).Add(float64(processed))
	m.skipped.WithLabelValues(label).Add(float64(skipped))
	m.skipRatio.Set(SkipRatio(processed, skipped))
}

// AddDiscarded increments the discard counter for a reason.
func (m *RelationshipSyncMetrics) AddDiscarded(reason string, count int) {
	if m == nil || m.discarded == nil || count <= 0 {
		return
	}
	m.discarded.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

// IncRun counts a finished run by outcome (success, partial, failed, locked).
func (m *RelationshipSyncMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SkipRatio returns skipped / (processed + skipped), or 0 when nothing was attempted.
func SkipRatio(processed, skipped int) float64 {
	total := processed + skipped
	if total <= 0 {
		return 0
	}
	return float64(skipped) / float64(total)
}
