package relationships

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawOrder is one externally supplied order record. Names are free text.
type RawOrder struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	OrderDate        time.Time       `json:"order_date"`
	QuantityGrams    *float64        `json:"quantity_grams"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ManufacturerName string          `json:"manufacturer_name"`
	StrainName       string          `json:"strain_name"`
	BrandName        string          `json:"brand_name"`
	PharmacyName     string          `json:"pharmacy_name"`
	DispensaryName   string          `json:"dispensary_name"`
	ProductName      string          `json:"product_name"`
}

// pharmacyName prefers PharmacyName and falls back to DispensaryName.
func (o RawOrder) pharmacyName() string {
	if name := strings.TrimSpace(o.PharmacyName); name != "" {
		return name
	}
	return strings.TrimSpace(o.DispensaryName)
}

func (o RawOrder) quantity() float64 {
	if o.QuantityGrams == nil || *o.QuantityGrams <= 0 {
		return 0
	}
	return *o.QuantityGrams
}

// CompositeKey identifies one snapshot row within a date.
type CompositeKey struct {
	PharmacyID     uuid.UUID
	ManufacturerID *uuid.UUID
	ProductID      *uuid.UUID
	StrainID       *uuid.UUID
}

// String renders the key with "-" for absent dimensions.
func (k CompositeKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.PharmacyID, optionalID(k.ManufacturerID), optionalID(k.ProductID), optionalID(k.StrainID))
}

// HasDimension reports whether at least one of manufacturer, product or strain is set.
func (k CompositeKey) HasDimension() bool {
	return k.ManufacturerID != nil || k.ProductID != nil || k.StrainID != nil
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

// SnapshotCandidate is an aggregated row that has not been persisted yet.
type SnapshotCandidate struct {
	CompositeKey
	StatDate         types.StatDate
	OrderCount       int64
	SalesVolumeGrams float64
}

// Diagnostics summarises the data quality of one aggregation run.
type Diagnostics struct {
	TotalRecords int                         `json:"total_records"`
	Discarded    map[enums.DiscardReason]int `json:"discarded"`
	Unmatched    UnmatchedSamples            `json:"unmatched"`
}

// DiscardedTotal sums every discard bucket.
func (d Diagnostics) DiscardedTotal() int {
	total := 0
	for _, count := range d.Discarded {
		total += count
	}
	return total
}

// UnmatchedSamples holds a bounded set of distinct names per entity kind.
type UnmatchedSamples struct {
	Pharmacies    []string `json:"pharmacies"`
	Manufacturers []string `json:"manufacturers"`
	Products      []string `json:"products"`
	Strains       []string `json:"strains"`
}

// AggregateResult is the output of one aggregation pass.
type AggregateResult struct {
	StatDate    types.StatDate
	Rows        []SnapshotCandidate
	Diagnostics Diagnostics
}

// WriteResult reports the outcome of a snapshot replacement.
type WriteResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// RunResult is returned by the aggregation entry point.
type RunResult struct {
	StatDate    types.StatDate `json:"stat_date"`
	Processed   int            `json:"processed"`
	Skipped     int            `json:"skipped"`
	SkipRatio   float64        `json:"skip_ratio"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// TopManufacturer is one ranked counterparty.
type TopManufacturer struct {
	ManufacturerID   uuid.UUID `json:"manufacturer_id"`
	Name             string    `json:"name"`
	ImageURL         *string   `json:"image_url,omitempty"`
	OrderCount       int64     `json:"order_count"`
	SalesVolumeGrams float64   `json:"sales_volume_grams"`
}

// TopManufacturers wraps a ranking with the date it was computed for.
type TopManufacturers struct {
	StatDate *types.StatDate   `json:"stat_date"`
	Items    []TopManufacturer `json:"items"`
}

// SynergyRequest selects the pharmacy and optional counterparties to test.
type SynergyRequest struct {
	PharmacyID     uuid.UUID
	ManufacturerID *uuid.UUID
	ProductID      *uuid.UUID
	StrainID       *uuid.UUID
	Date           *types.StatDate
}

// SynergyResult carries the independent existence checks and the derived flag.
type SynergyResult struct {
	StatDate                *types.StatDate `json:"stat_date"`
	HasPharmacyStrain       bool            `json:"has_pharmacy_strain"`
	HasPharmacyProduct      bool            `json:"has_pharmacy_product"`
	HasPharmacyManufacturer bool            `json:"has_pharmacy_manufacturer"`
	HasFullSynergy          bool            `json:"has_full_synergy"`
}

// Summary holds distinct counterparty counts for one entity.
type Summary struct {
	Kind              enums.EntityKind `json:"kind"`
	ID                uuid.UUID        `json:"id"`
	StatDate          *types.StatDate  `json:"stat_date"`
	ManufacturerCount int64            `json:"manufacturer_count"`
	PharmacyCount     int64            `json:"pharmacy_count"`
	StrainCount       int64            `json:"strain_count"`
}
