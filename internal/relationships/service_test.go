package relationships

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/angelmondragon/greenleague-backend/pkg/db/models"
	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeSource struct {
	byDate map[string][]RawOrder
	err    error
	calls  []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchOrders(_ context.Context, date types.StatDate) ([]RawOrder, error) {
	f.calls = append(f.calls, date.String())
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[date.String()], nil
}

type syncFixture struct {
	repo    *Repository
	source  *fakeSource
	locker  *MemoryDateLocker
	service *SyncService
	cat     testCatalog
	reg     *prometheus.Registry
}

func newSyncFixture(t *testing.T) syncFixture {
	t.Helper()
	db := setupRelationshipsTestDB(t)
	repo := NewRepository(db)
	source := &fakeSource{byDate: map[string][]RawOrder{}}
	locker := NewMemoryDateLocker()
	logg := newTestLogger(nil)
	writer, err := NewWriter(WriterParams{Store: repo, Locker: locker, Logger: logg})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	service, err := NewSyncService(SyncServiceParams{
		Catalog:    catalog.NewRepository(db),
		Source:     source,
		Aggregator: NewAggregator(5),
		Writer:     writer,
		Logger:     logg,
		Metrics:    metrics.NewRelationshipSyncMetrics(reg),
	})
	require.NoError(t, err)
	return syncFixture{repo: repo, source: source, locker: locker, service: service, cat: seedCatalog(t, db), reg: reg}
}

func TestSyncRunAggregatesAndPersists(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.source.byDate[testDate.String()] = []RawOrder{
		{ID: "1", PharmacyName: "Green Leaf", ManufacturerName: "Acme", QuantityGrams: ptrFloat(10)},
		{ID: "2", PharmacyName: "green leaf", ManufacturerName: "ACME", QuantityGrams: ptrFloat(15)},
		{ID: "3", PharmacyName: "Nowhere", ManufacturerName: "Acme"},
		{ID: "4", PharmacyName: "Green Leaf", StrainName: "Blue Dream", ProductName: "Acme Pre-Roll"},
	}

	result, err := f.service.Run(ctx, testDate.Time.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.SkipRatio)
	assert.Equal(t, 1, result.Diagnostics.Discarded[enums.DiscardReasonPharmacyNotFound])
	assert.Equal(t, []string{"Nowhere"}, result.Diagnostics.Unmatched.Pharmacies)

	persisted, err := f.repo.ListByDate(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	acme := f.cat.manufacturers["Acme"]
	var found bool
	for _, row := range persisted {
		if row.ManufacturerID != nil && *row.ManufacturerID == acme {
			found = true
			assert.Equal(t, int64(2), row.OrderCount)
			assert.InDelta(t, 25.0, row.SalesVolumeGrams, 1e-9)
			assert.Nil(t, row.ProductID)
			assert.Nil(t, row.StrainID)
		}
	}
	assert.True(t, found, "expected the Green Leaf / Acme row")

	assert.Equal(t, 2.0, counterTotal(t, f.reg, "relationship_rows_processed_total"))
	assert.Equal(t, 1.0, counterTotal(t, f.reg, "relationship_records_discarded_total"))
	assert.Equal(t, []string{testDate.String()}, f.source.calls)
}

func TestSyncRunTwiceIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.source.byDate[testDate.String()] = []RawOrder{
		{PharmacyName: "Green Leaf", ManufacturerName: "Acme", QuantityGrams: ptrFloat(1)},
		{PharmacyName: "Blue Door", StrainName: "Sour Diesel", QuantityGrams: ptrFloat(2)},
	}

	first, err := f.service.Run(ctx, testDate.Time)
	require.NoError(t, err)
	before, err := f.repo.ListByDate(ctx, testDate)
	require.NoError(t, err)

	second, err := f.service.Run(ctx, testDate.Time)
	require.NoError(t, err)
	after, err := f.repo.ListByDate(ctx, testDate)
	require.NoError(t, err)

	assert.Equal(t, first.Processed, second.Processed)
	require.Len(t, after, len(before))
	assert.ElementsMatch(t, snapshotKeys(before), snapshotKeys(after))
}

func TestSyncSourceFailureLeavesSnapshotIntact(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.source.byDate[testDate.String()] = []RawOrder{
		{PharmacyName: "Green Leaf", ManufacturerName: "Acme"},
	}
	_, err := f.service.Run(ctx, testDate.Time)
	require.NoError(t, err)

	f.source.err = errors.New("bigquery unavailable")
	_, err = f.service.Run(ctx, testDate.Time)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	persisted, err := f.repo.ListByDate(ctx, testDate)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestSyncRunRangeContinuesPastLockedDate(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	for offset := 0; offset < 3; offset++ {
		f.source.byDate[testDate.AddDays(-offset).String()] = []RawOrder{
			{PharmacyName: "Green Leaf", ManufacturerName: "Bolt"},
		}
	}

	release, err := f.locker.LockDate(ctx, testDate.AddDays(-1))
	require.NoError(t, err)
	defer func() { _ = release(ctx) }()

	results, err := f.service.RunRange(ctx, testDate.Time, 3)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.ErrorIs(t, err, ErrDateLocked)

	require.Len(t, results, 3)
	assert.Equal(t, testDate.AddDays(-2).String(), results[0].StatDate.String())
	assert.Equal(t, 1, results[0].Processed)
	assert.Equal(t, 1, results[1].Skipped)
	assert.Equal(t, 1, results[2].Processed)
	assert.Equal(t, []string{
		testDate.AddDays(-2).String(),
		testDate.AddDays(-1).String(),
		testDate.String(),
	}, f.source.calls)
}

func TestNewSyncServiceValidation(t *testing.T) {
	_, err := NewSyncService(SyncServiceParams{})
	assert.Error(t, err)
}

func snapshotKeys(rows []models.PharmacyRelationship) []string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		key := CompositeKey{
			PharmacyID:     row.PharmacyID,
			ManufacturerID: row.ManufacturerID,
			ProductID:      row.ProductID,
			StrainID:       row.StrainID,
		}
		keys = append(keys, key.String()+"@"+row.StatDate.String())
	}
	return keys
}

func counterTotal(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
