package relationships

import (
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
)

const defaultUnmatchedSampleSize = 10

// Aggregator folds raw orders into snapshot candidates.
type Aggregator struct {
	sampleSize int
}

// NewAggregator builds an aggregator keeping up to sampleSize unmatched names per kind.
func NewAggregator(sampleSize int) *Aggregator {
	if sampleSize <= 0 {
		sampleSize = defaultUnmatchedSampleSize
	}
	return &Aggregator{sampleSize: sampleSize}
}

type accumulator struct {
	orderCount int64
	volume     float64
}

// Aggregate resolves every record and groups the matches by composite key.
// Candidates come back sorted by key so repeated runs emit the same order.
func (a *Aggregator) Aggregate(statDate time.Time, records []RawOrder, resolver *Resolver) AggregateResult {
	date := types.NewStatDate(statDate)
	diag := newDiagnostics(len(records))
	samples := newSampleSet(a.sampleSize)

	keys := make(map[string]CompositeKey)
	totals := make(map[string]*accumulator)

	for _, record := range records {
		pharmacyName := record.pharmacyName()
		if pharmacyName == "" {
			diag.Discarded[enums.DiscardReasonNoPharmacyName]++
			continue
		}
		pharmacyID, ok := resolver.Pharmacy(pharmacyName)
		if !ok {
			diag.Discarded[enums.DiscardReasonPharmacyNotFound]++
			samples.pharmacies.add(pharmacyName)
			continue
		}

		key := CompositeKey{
			PharmacyID:     pharmacyID,
			ManufacturerID: resolveOptional(resolver.Manufacturer, record.ManufacturerName, samples.manufacturers),
			ProductID:      resolveOptional(resolver.Product, record.ProductName, samples.products),
			StrainID:       resolveOptional(resolver.Strain, record.StrainName, samples.strains),
		}
		if !key.HasDimension() {
			diag.Discarded[enums.DiscardReasonNoRelationships]++
			continue
		}

		id := key.String()
		acc, exists := totals[id]
		if !exists {
			acc = &accumulator{}
			totals[id] = acc
			keys[id] = key
		}
		acc.orderCount++
		acc.volume += record.quantity()
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]SnapshotCandidate, 0, len(ids))
	for _, id := range ids {
		acc := totals[id]
		rows = append(rows, SnapshotCandidate{
			CompositeKey:     keys[id],
			StatDate:         date,
			OrderCount:       acc.orderCount,
			SalesVolumeGrams: acc.volume,
		})
	}

	diag.Unmatched = samples.result()
	return AggregateResult{StatDate: date, Rows: rows, Diagnostics: diag}
}

func resolveOptional(resolve func(string) (uuid.UUID, bool), name string, unmatched *sample) *uuid.UUID {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	id, ok := resolve(name)
	if !ok {
		unmatched.add(name)
		return nil
	}
	return &id
}

func newDiagnostics(total int) Diagnostics {
	discarded := make(map[enums.DiscardReason]int, len(enums.DiscardReasons))
	for _, reason := range enums.DiscardReasons {
		discarded[reason] = 0
	}
	return Diagnostics{TotalRecords: total, Discarded: discarded}
}

// sample keeps the first distinct names seen, up to limit.
type sample struct {
	limit int
	seen  map[string]struct{}
	names []string
}

func newSample(limit int) *sample {
	return &sample{limit: limit, seen: make(map[string]struct{})}
}

func (s *sample) add(name string) {
	if len(s.names) >= s.limit {
		return
	}
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.names = append(s.names, name)
}

type sampleSet struct {
	pharmacies    *sample
	manufacturers *sample
	products      *sample
	strains       *sample
}

func newSampleSet(limit int) sampleSet {
	return sampleSet{
		pharmacies:    newSample(limit),
		manufacturers: newSample(limit),
		products:      newSample(limit),
		strains:       newSample(limit),
	}
}

func (s sampleSet) result() UnmatchedSamples {
	return UnmatchedSamples{
		Pharmacies:    nonNil(s.pharmacies.names),
		Manufacturers: nonNil(s.manufacturers.names),
		Products:      nonNil(s.products.names),
		Strains:       nonNil(s.strains.names),
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
