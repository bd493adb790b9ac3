package relationships

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeFailed  = "failed"
	outcomeLocked  = "locked"
)

// OrderSource supplies the raw order batch for one statistical date.
type OrderSource interface {
	Name() string
	FetchOrders(ctx context.Context, date types.StatDate) ([]RawOrder, error)
}

// Syncer is the aggregation entry point driven by schedulers.
type Syncer interface {
	Run(ctx context.Context, statDate time.Time) (RunResult, error)
	RunRange(ctx context.Context, end time.Time, days int) ([]RunResult, error)
}

// SyncServiceParams wire the sync service.
type SyncServiceParams struct {
	Catalog    catalog.Reader
	Source     OrderSource
	Aggregator *Aggregator
	Writer     *Writer
	Logger     *logger.Logger
	Metrics    *metrics.RelationshipSyncMetrics
}

// SyncService aggregates one statistical date and replaces its snapshot.
type SyncService struct {
	catalog    catalog.Reader
	source     OrderSource
	aggregator *Aggregator
	writer     *Writer
	logg       *logger.Logger
	metrics    *metrics.RelationshipSyncMetrics
}

// NewSyncService validates params and builds the service.
func NewSyncService(params SyncServiceParams) (*SyncService, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog reader required")
	}
	if params.Source == nil {
		return nil, errors.New("order source required")
	}
	if params.Writer == nil {
		return nil, errors.New("snapshot writer required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	aggregator := params.Aggregator
	if aggregator == nil {
		aggregator = NewAggregator(defaultUnmatchedSampleSize)
	}
	return &SyncService{
		catalog:    params.Catalog,
		source:     params.Source,
		aggregator: aggregator,
		writer:     params.Writer,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Run loads the catalog, fetches the batch, aggregates it and replaces the snapshot.
// Catalog and source failures abort before anything is deleted.
func (s *SyncService) Run(ctx context.Context, statDate time.Time) (RunResult, error) {
	date := types.NewStatDate(statDate)
	ctx = s.logg.WithStatDate(ctx, date)
	ctx = s.logg.WithRunID(ctx, uuid.NewString())
	ctx = s.logg.WithField(ctx, "source", s.source.Name())
	result := RunResult{StatDate: date}

	listing, err := s.catalog.Listing(ctx)
	if err != nil {
		s.metrics.IncRun(outcomeFailed)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog listing")
	}
	resolver := NewResolver(listing)

	records, err := s.source.FetchOrders(ctx, date)
	if err != nil {
		s.metrics.IncRun(outcomeFailed)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch raw orders")
	}
	s.logg.Debug(s.logg.WithField(ctx, "records", len(records)), "raw orders fetched")

	aggregate := s.aggregator.Aggregate(date.Time, records, resolver)
	result.Diagnostics = aggregate.Diagnostics
	s.logDiagnostics(ctx, len(aggregate.Rows), aggregate.Diagnostics)
	for reason, count := range aggregate.Diagnostics.Discarded {
		s.metrics.AddDiscarded(reason.String(), count)
	}

	written, err := s.writer.Replace(ctx, date, aggregate.Rows)
	result.Processed = written.Processed
	result.Skipped = written.Skipped
	result.SkipRatio = metrics.SkipRatio(written.Processed, written.Skipped)
	if err != nil {
		if errors.Is(err, ErrDateLocked) {
			s.metrics.IncRun(outcomeLocked)
		} else {
			s.metrics.ObserveWrite(s.source.Name(), written.Processed, written.Skipped)
			s.metrics.IncRun(outcomeFailed)
		}
		return result, err
	}

	s.metrics.ObserveWrite(s.source.Name(), written.Processed, written.Skipped)
	outcome := outcomeSuccess
	if written.Skipped > 0 {
		outcome = outcomePartial
	}
	s.metrics.IncRun(outcome)

	doneCtx := s.logg.WithFields(ctx, map[string]any{
		"processed":  result.Processed,
		"skipped":    result.Skipped,
		"skip_ratio": result.SkipRatio,
		"outcome":    outcome,
	})
	if written.Skipped > 0 {
		s.logg.Warn(doneCtx, "relationship sync completed with skipped rows")
	} else {
		s.logg.Info(doneCtx, "relationship sync completed")
	}
	return result, nil
}

// RunRange runs the days dates ending at end, oldest first. Each date is an
// independent partition, so a failed date does not stop the others.
func (s *SyncService) RunRange(ctx context.Context, end time.Time, days int) ([]RunResult, error) {
	if days <= 0 {
		days = 1
	}
	last := types.NewStatDate(end)
	results := make([]RunResult, 0, days)
	var errs error
	for offset := days - 1; offset >= 0; offset-- {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		result, err := s.Run(ctx, last.AddDays(-offset).Time)
		results = append(results, result)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return results, errs
}

func (s *SyncService) logDiagnostics(ctx context.Context, candidates int, diag Diagnostics) {
	fields := map[string]any{
		"total_records": diag.TotalRecords,
		"candidates":    candidates,
	}
	for reason, count := range diag.Discarded {
		fields["discarded_"+reason.String()] = count
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "relationship aggregation finished")

	unmatched := diag.Unmatched
	if len(unmatched.Pharmacies)+len(unmatched.Manufacturers)+len(unmatched.Products)+len(unmatched.Strains) == 0 {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"unmatched_pharmacies":    unmatched.Pharmacies,
		"unmatched_manufacturers": unmatched.Manufacturers,
		"unmatched_products":      unmatched.Products,
		"unmatched_strains":       unmatched.Strains,
	}), "unmatched catalog names in raw orders")
}
