package relationships

import (
	"context"
	"fmt"

	"github.com/angelmondragon/greenleague-backend/pkg/db/models"
	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotStore is the write surface used by Writer.
type SnapshotStore interface {
	DeleteByDate(ctx context.Context, date types.StatDate) (int64, error)
	Insert(ctx context.Context, row *models.PharmacyRelationship) error
}

// SnapshotReader is the read surface used by QueryService.
type SnapshotReader interface {
	LatestStatDate(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*types.StatDate, error)
	ManufacturerTotals(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date types.StatDate, limit int) ([]ManufacturerTotal, error)
	HasRelationship(ctx context.Context, pharmacyID uuid.UUID, date types.StatDate, dimension enums.EntityKind, id *uuid.UUID) (bool, error)
	DistinctCounts(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date types.StatDate) (DistinctCounts, error)
}

// ManufacturerTotal is the per-manufacturer sum for one anchor and date.
type ManufacturerTotal struct {
	ManufacturerID   uuid.UUID
	OrderCount       int64
	SalesVolumeGrams float64
}

// DistinctCounts holds COUNT(DISTINCT ...) per dimension.
type DistinctCounts struct {
	ManufacturerCount int64
	PharmacyCount     int64
	StrainCount       int64
}

// columnByKind maps an entity kind to its snapshot column. Only these literals reach SQL.
var columnByKind = map[enums.EntityKind]string{
	enums.EntityKindPharmacy:     "pharmacy_id",
	enums.EntityKindManufacturer: "manufacturer_id",
	enums.EntityKindProduct:      "product_id",
	enums.EntityKindStrain:       "strain_id",
}

func columnFor(kind enums.EntityKind) (string, error) {
	column, ok := columnByKind[kind]
	if !ok {
		return "", fmt.Errorf("unsupported entity kind %q", kind)
	}
	return column, nil
}

// Repository persists and reads pharmacy_relationships rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DeleteByDate removes every row for the date in one statement.
func (r *Repository) DeleteByDate(ctx context.Context, date types.StatDate) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("stat_date = ?", date).
		Delete(&models.PharmacyRelationship{})
	return res.RowsAffected, res.Error
}

// Insert writes a single row.
func (r *Repository) Insert(ctx context.Context, row *models.PharmacyRelationship) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListByDate returns the rows of one date ordered by creation.
func (r *Repository) ListByDate(ctx context.Context, date types.StatDate) ([]models.PharmacyRelationship, error) {
	var rows []models.PharmacyRelationship
	if err := r.db.WithContext(ctx).
		Where("stat_date = ?", date).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestStatDate returns MAX(stat_date) for rows anchored on id, or nil when none exist.
func (r *Repository) LatestStatDate(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*types.StatDate, error) {
	column, err := columnFor(kind)
	if err != nil {
		return nil, err
	}
	var latest types.StatDate
	if err := r.db.WithContext(ctx).
		Model(&models.PharmacyRelationship{}).
		Select("MAX(stat_date)").
		Where(column+" = ?", id).
		Row().
		Scan(&latest); err != nil {
		return nil, err
	}
	if latest.IsZero() {
		return nil, nil
	}
	return &latest, nil
}

// ManufacturerTotals ranks manufacturers by summed order count for the anchor and date.
func (r *Repository) ManufacturerTotals(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date types.StatDate, limit int) ([]ManufacturerTotal, error) {
	column, err := columnFor(kind)
	if err != nil {
		return nil, err
	}
	var totals []ManufacturerTotal
	err = r.db.WithContext(ctx).
		Model(&models.PharmacyRelationship{}).
		Select("manufacturer_id, SUM(order_count) AS order_count, SUM(sales_volume_grams) AS sales_volume_grams").
		Where(column+" = ?", id).
		Where("stat_date = ?", date).
		Where("manufacturer_id IS NOT NULL").
		Group("manufacturer_id").
		Order("SUM(order_count) DESC").
		Order("manufacturer_id ASC").
		Limit(limit).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// HasRelationship checks whether the pharmacy has a row on the dimension for the date.
// A nil id matches any non-null value of that dimension.
func (r *Repository) HasRelationship(ctx context.Context, pharmacyID uuid.UUID, date types.StatDate, dimension enums.EntityKind, id *uuid.UUID) (bool, error) {
	column, err := columnFor(dimension)
	if err != nil {
		return false, err
	}
	condition := column + " IS NOT NULL"
	args := []any{pharmacyID, date}
	if id != nil {
		condition = column + " = ?"
		args = append(args, *id)
	}

	query := fmt.Sprintf(`
SELECT EXISTS (
  SELECT 1 FROM pharmacy_relationships
  WHERE pharmacy_id = ? AND stat_date = ? AND %s
)`, condition)

	var exists bool
	if err := r.db.WithContext(ctx).Raw(query, args...).Row().Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// DistinctCounts counts distinct counterparties for rows anchored on id.
func (r *Repository) DistinctCounts(ctx context.Context, kind enums.EntityKind, id uuid.UUID, date types.StatDate) (DistinctCounts, error) {
	column, err := columnFor(kind)
	if err != nil {
		return DistinctCounts{}, err
	}
	var counts DistinctCounts
	err = r.db.WithContext(ctx).
		Model(&models.PharmacyRelationship{}).
		Select(`COUNT(DISTINCT manufacturer_id) AS manufacturer_count,
COUNT(DISTINCT pharmacy_id) AS pharmacy_count,
COUNT(DISTINCT strain_id) AS strain_count`).
		Where(column+" = ?", id).
		Where("stat_date = ?", date).
		Scan(&counts).Error
	if err != nil {
		return DistinctCounts{}, err
	}
	return counts, nil
}
