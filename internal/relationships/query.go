package relationships

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 50
)

// Querier exposes the read-only relationship queries.
type Querier interface {
	TopManufacturersForPharmacy(ctx context.Context, pharmacyID uuid.UUID, date *types.StatDate, limit int) (TopManufacturers, error)
	TopManufacturersForStrain(ctx context.Context, strainID uuid.UUID, date *types.StatDate, limit int) (TopManufacturers, error)
	Synergy(ctx context.Context, req SynergyRequest) (SynergyResult, error)
	Summary(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date *types.StatDate) (Summary, error)
}

// QueryService answers ranking, synergy and summary reads over persisted snapshots.
type QueryService struct {
	reader  SnapshotReader
	catalog catalog.Reader
}

// NewQueryService builds the read service.
func NewQueryService(reader SnapshotReader, catalogReader catalog.Reader) (*QueryService, error) {
	if reader == nil {
		return nil, errors.New("snapshot reader required")
	}
	if catalogReader == nil {
		return nil, errors.New("catalog reader required")
	}
	return &QueryService{reader: reader, catalog: catalogReader}, nil
}

// TopManufacturersForPharmacy ranks the pharmacy's manufacturers by order count.
func (s *QueryService) TopManufacturersForPharmacy(ctx context.Context, pharmacyID uuid.UUID, date *types.StatDate, limit int) (TopManufacturers, error) {
	return s.topManufacturers(ctx, enums.EntityKindPharmacy, pharmacyID, date, limit)
}

// TopManufacturersForStrain ranks manufacturers selling the strain by order count.
func (s *QueryService) TopManufacturersForStrain(ctx context.Context, strainID uuid.UUID, date *types.StatDate, limit int) (TopManufacturers, error) {
	return s.topManufacturers(ctx, enums.EntityKindStrain, strainID, date, limit)
}

func (s *QueryService) topManufacturers(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date *types.StatDate, limit int) (TopManufacturers, error) {
	out := TopManufacturers{Items: []TopManufacturer{}}

	statDate, err := s.resolveDate(ctx, kind, id, date)
	if err != nil || statDate == nil {
		return out, err
	}
	out.StatDate = statDate

	totals, err := s.reader.ManufacturerTotals(ctx, kind, id, *statDate, clampLimit(limit))
	if err != nil {
		return TopManufacturers{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank manufacturers")
	}
	if len(totals) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(totals))
	for _, total := range totals {
		ids = append(ids, total.ManufacturerID)
	}
	display, err := s.catalog.ManufacturersByID(ctx, ids)
	if err != nil {
		return TopManufacturers{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load manufacturer display data")
	}

	for _, total := range totals {
		item := TopManufacturer{
			ManufacturerID:   total.ManufacturerID,
			OrderCount:       total.OrderCount,
			SalesVolumeGrams: total.SalesVolumeGrams,
		}
		if summary, ok := display[total.ManufacturerID]; ok {
			item.Name = summary.Name
			item.ImageURL = summary.ImageURL
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// Synergy runs three independent existence checks for the pharmacy on the resolved date.
func (s *QueryService) Synergy(ctx context.Context, req SynergyRequest) (SynergyResult, error) {
	var result SynergyResult

	statDate, err := s.resolveDate(ctx, enums.EntityKindPharmacy, req.PharmacyID, req.Date)
	if err != nil || statDate == nil {
		return result, err
	}
	result.StatDate = statDate

	checks := []struct {
		dimension enums.EntityKind
		id        *uuid.UUID
		dest      *bool
	}{
		{enums.EntityKindStrain, req.StrainID, &result.HasPharmacyStrain},
		{enums.EntityKindProduct, req.ProductID, &result.HasPharmacyProduct},
		{enums.EntityKindManufacturer, req.ManufacturerID, &result.HasPharmacyManufacturer},
	}
	for _, check := range checks {
		exists, err := s.reader.HasRelationship(ctx, req.PharmacyID, *statDate, check.dimension, check.id)
		if err != nil {
			return SynergyResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("check pharmacy-%s relationship", check.dimension))
		}
		*check.dest = exists
	}

	result.HasFullSynergy = result.HasPharmacyStrain && (result.HasPharmacyProduct || result.HasPharmacyManufacturer)
	return result, nil
}

// Summary returns distinct counterparty counts for a pharmacy, strain or manufacturer.
func (s *QueryService) Summary(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date *types.StatDate) (Summary, error) {
	switch kind {
	case enums.EntityKindPharmacy, enums.EntityKindStrain, enums.EntityKindManufacturer:
	default:
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "summary kind must be pharmacy, strain or manufacturer").
			WithDetails(map[string]any{"kind": kind})
	}

	summary := Summary{Kind: kind, ID: id}
	statDate, err := s.resolveDate(ctx, kind, id, date)
	if err != nil || statDate == nil {
		return summary, err
	}
	summary.StatDate = statDate

	counts, err := s.reader.DistinctCounts(ctx, kind, id, *statDate)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count relationship counterparties")
	}

	switch kind {
	case enums.EntityKindPharmacy:
		summary.ManufacturerCount = counts.ManufacturerCount
		summary.StrainCount = counts.StrainCount
	case enums.EntityKindStrain:
		summary.ManufacturerCount = counts.ManufacturerCount
		summary.PharmacyCount = counts.PharmacyCount
	case enums.EntityKindManufacturer:
		summary.PharmacyCount = counts.PharmacyCount
		summary.StrainCount = counts.StrainCount
	}
	return summary, nil
}

// resolveDate returns the explicit date or the latest date present for the anchor.
// A nil result means the anchor has no rows at all.
func (s *QueryService) resolveDate(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date *types.StatDate) (*types.StatDate, error) {
	if date != nil {
		return date, nil
	}
	latest, err := s.reader.LatestStatDate(ctx, kind, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve latest stat date")
	}
	return latest, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopLimit
	}
	if limit > MaxTopLimit {
		return MaxTopLimit
	}
	return limit
}
