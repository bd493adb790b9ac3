package relationships

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/db"
	"github.com/angelmondragon/greenleague-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
)

const (
	defaultFailureLogLimit = 5
	defaultDeleteTimeout   = 30 * time.Second
	defaultInsertTimeout   = 5 * time.Second
)

// WriterParams configure the snapshot writer.
type WriterParams struct {
	Store           SnapshotStore
	Locker          DateLocker
	Logger          *logger.Logger
	FailureLogLimit int
	DeleteTimeout   time.Duration
	InsertTimeout   time.Duration
}

// Writer replaces the persisted snapshot of one statistical date.
type Writer struct {
	store           SnapshotStore
	locker          DateLocker
	logg            *logger.Logger
	failureLogLimit int
	deleteTimeout   time.Duration
	insertTimeout   time.Duration
}

// NewWriter validates params and builds a writer.
func NewWriter(params WriterParams) (*Writer, error) {
	if params.Store == nil {
		return nil, errors.New("snapshot store required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	locker := params.Locker
	if locker == nil {
		locker = NewMemoryDateLocker()
	}
	limit := params.FailureLogLimit
	if limit <= 0 {
		limit = defaultFailureLogLimit
	}
	deleteTimeout := params.DeleteTimeout
	if deleteTimeout <= 0 {
		deleteTimeout = defaultDeleteTimeout
	}
	insertTimeout := params.InsertTimeout
	if insertTimeout <= 0 {
		insertTimeout = defaultInsertTimeout
	}
	return &Writer{
		store:           params.Store,
		locker:          locker,
		logg:            params.Logger,
		failureLogLimit: limit,
		deleteTimeout:   deleteTimeout,
		insertTimeout:   insertTimeout,
	}, nil
}

// Replace deletes every row for date and inserts rows one by one.
// Only lock and delete failures are returned as errors; per-row insert
// failures are counted as skipped.
func (w *Writer) Replace(ctx context.Context, date types.StatDate, rows []SnapshotCandidate) (WriteResult, error) {
	ctx = w.logg.WithStatDate(ctx, date)
	aborted := WriteResult{Skipped: len(rows)}

	release, err := w.locker.LockDate(ctx, date)
	if err != nil {
		if errors.Is(err, ErrDateLocked) {
			w.logg.Warn(ctx, "relationship snapshot date is locked by another run")
		}
		return aborted, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			w.logg.Error(ctx, "failed to release relationship date lock", relErr)
		}
	}()

	deleted, err := w.deleteDate(ctx, date)
	if err != nil {
		errCtx := w.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		errCtx = w.logg.WithFields(errCtx, map[string]any{
			"candidates":   len(rows),
			"connectivity": db.IsConnectivityError(err),
		})
		w.logg.Error(errCtx, "relationship snapshot delete failed; run aborted", err)
		return aborted, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete relationship snapshot")
	}
	ctx = w.logg.WithField(ctx, "deleted_rows", deleted)

	if len(rows) == 0 {
		w.logg.Info(ctx, "relationship snapshot cleared; no candidates to insert")
		return WriteResult{}, nil
	}

	var result WriteResult
	for i := range rows {
		if err := w.insert(ctx, date, rows[i]); err != nil {
			result.Skipped++
			if result.Skipped <= w.failureLogLimit {
				w.logInsertFailure(ctx, rows[i], err)
			}
			continue
		}
		result.Processed++
	}

	if result.Skipped > w.failureLogLimit {
		w.logg.Warn(w.logg.WithField(ctx, "suppressed_failures", result.Skipped-w.failureLogLimit),
			"additional relationship insert failures not logged")
	}
	return result, nil
}

func (w *Writer) deleteDate(ctx context.Context, date types.StatDate) (int64, error) {
	deleteCtx, cancel := context.WithTimeout(ctx, w.deleteTimeout)
	defer cancel()
	return w.store.DeleteByDate(deleteCtx, date)
}

func (w *Writer) insert(ctx context.Context, date types.StatDate, row SnapshotCandidate) error {
	if !row.HasDimension() {
		return errors.New("snapshot row has no manufacturer, product or strain")
	}
	insertCtx, cancel := context.WithTimeout(ctx, w.insertTimeout)
	defer cancel()
	return w.store.Insert(insertCtx, &models.PharmacyRelationship{
		PharmacyID:       row.PharmacyID,
		ManufacturerID:   row.ManufacturerID,
		ProductID:        row.ProductID,
		StrainID:         row.StrainID,
		StatDate:         date,
		OrderCount:       row.OrderCount,
		SalesVolumeGrams: row.SalesVolumeGrams,
	})
}

func (w *Writer) logInsertFailure(ctx context.Context, row SnapshotCandidate, err error) {
	errCtx := w.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	errCtx = w.logg.WithFields(errCtx, map[string]any{
		"composite_key":    row.String(),
		"order_count":      row.OrderCount,
		"unique_violation": db.IsUniqueViolation(err, ""),
		"connectivity":     db.IsConnectivityError(err),
	})
	w.logg.Warn(errCtx, "relationship snapshot insert failed; row skipped")
}
