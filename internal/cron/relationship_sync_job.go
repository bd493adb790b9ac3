package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

const relationshipSyncJobName = "relationship-sync"

// RelationshipSyncJobParams configures the relationship-sync cron job.
type RelationshipSyncJobParams struct {
	Logger       *logger.Logger
	Syncer       relationshipSyncer
	BackfillDays int
}

type relationshipSyncer interface {
	RunRange(ctx context.Context, end time.Time, days int) ([]relationships.RunResult, error)
}

// NewRelationshipSyncJob builds the job that syncs yesterday (UTC) plus
// BackfillDays-1 earlier dates. BackfillDays below 1 syncs a single day.
func NewRelationshipSyncJob(params RelationshipSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("relationship syncer required")
	}
	days := params.BackfillDays
	if days <= 0 {
		days = 1
	}
	return &relationshipSyncJob{
		logg:   params.Logger,
		syncer: params.Syncer,
		days:   days,
		now:    time.Now,
	}, nil
}

type relationshipSyncJob struct {
	logg   *logger.Logger
	syncer relationshipSyncer
	days   int
	now    func() time.Time
}

func (j *relationshipSyncJob) Name() string { return relationshipSyncJobName }

// Run aggregates yesterday (UTC) plus days-1 earlier dates.
func (j *relationshipSyncJob) Run(ctx context.Context) error {
	end := j.now().UTC().AddDate(0, 0, -1)
	results, err := j.syncer.RunRange(ctx, end, j.days)

	processed, skipped := 0, 0
	for _, result := range results {
		processed += result.Processed
		skipped += result.Skipped
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"end_date":  end.Format(time.DateOnly),
		"days":      j.days,
		"dates_run": len(results),
		"processed": processed,
		"skipped":   skipped,
	})
	if err != nil {
		logCtx = j.logg.WithField(logCtx, "retryable", pkgerrors.IsRetryable(err))
		j.logg.Warn(logCtx, "relationship sync finished with failed dates")
		return fmt.Errorf("relationship sync: %w", err)
	}
	j.logg.Info(logCtx, "relationship sync complete")
	return nil
}
