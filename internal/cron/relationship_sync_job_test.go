package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

type fakeRelationshipSyncer struct {
	lastEnd  time.Time
	lastDays int
	called   int
	err      error
}

func (f *fakeRelationshipSyncer) RunRange(_ context.Context, end time.Time, days int) ([]relationships.RunResult, error) {
	f.called++
	f.lastEnd = end
	f.lastDays = days
	if f.err != nil {
		return []relationships.RunResult{{Skipped: 3}}, f.err
	}
	return []relationships.RunResult{{Processed: 4, Skipped: 1}}, nil
}

func TestRelationshipSyncJobTargetsYesterday(t *testing.T) {
	now := time.Date(2026, 3, 5, 2, 15, 0, 0, time.UTC)
	syncer := &fakeRelationshipSyncer{}
	job := newRelationshipSyncJob(t, syncer, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := syncer.lastEnd.Format(time.DateOnly); got != "2026-03-04" {
		t.Fatalf("expected end date 2026-03-04, got %s", got)
	}
	if syncer.lastDays != 1 {
		t.Fatalf("expected a single date by default, got %d", syncer.lastDays)
	}
	if job.Name() != "relationship-sync" {
		t.Fatalf("unexpected job name %s", job.Name())
	}
}

func TestRelationshipSyncJobBackfill(t *testing.T) {
	syncer := &fakeRelationshipSyncer{}
	job := newRelationshipSyncJob(t, syncer, 7)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if syncer.lastDays != 7 {
		t.Fatalf("expected 7 backfill days, got %d", syncer.lastDays)
	}
}

func TestRelationshipSyncJobPropagatesError(t *testing.T) {
	syncer := &fakeRelationshipSyncer{err: errors.New("delete failed")}
	job := newRelationshipSyncJob(t, syncer, 1)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if syncer.called != 1 {
		t.Fatalf("expected syncer called once, got %d", syncer.called)
	}
}

func TestNewRelationshipSyncJobValidation(t *testing.T) {
	if _, err := NewRelationshipSyncJob(RelationshipSyncJobParams{}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewRelationshipSyncJob(RelationshipSyncJobParams{Logger: logger.New(logger.Options{ServiceName: "test"})}); err == nil {
		t.Fatal("expected syncer error")
	}
}

func newRelationshipSyncJob(t *testing.T, syncer *fakeRelationshipSyncer, days int) *relationshipSyncJob {
	t.Helper()
	jobIface, err := NewRelationshipSyncJob(RelationshipSyncJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Syncer:       syncer,
		BackfillDays: days,
	})
	if err != nil {
		t.Fatalf("NewRelationshipSyncJob: %v", err)
	}
	job, ok := jobIface.(*relationshipSyncJob)
	if !ok {
		t.Fatalf("expected relationshipSyncJob, got %T", jobIface)
	}
	return job
}
