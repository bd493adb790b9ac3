package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/greenleague-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reader exposes the read-only catalog surface used by the relationship engine.
type Reader interface {
	Listing(ctx context.Context) (Listing, error)
	ManufacturersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ManufacturerSummary, error)
}

// Repository reads catalog tables through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPharmacies returns every pharmacy as an id/name pair.
func (r *Repository) ListPharmacies(ctx context.Context) ([]Entry, error) {
	return r.listEntries(ctx, &models.Pharmacy{})
}

// ListManufacturers returns every manufacturer as an id/name pair.
func (r *Repository) ListManufacturers(ctx context.Context) ([]Entry, error) {
	return r.listEntries(ctx, &models.Manufacturer{})
}

// ListProducts returns every product as an id/name pair.
func (r *Repository) ListProducts(ctx context.Context) ([]Entry, error) {
	return r.listEntries(ctx, &models.Product{})
}

// ListStrains returns every strain as an id/name pair.
func (r *Repository) ListStrains(ctx context.Context) ([]Entry, error) {
	return r.listEntries(ctx, &models.Strain{})
}

// Listing loads all four catalog kinds.
func (r *Repository) Listing(ctx context.Context) (Listing, error) {
	var (
		listing Listing
		err     error
	)
	if listing.Pharmacies, err = r.ListPharmacies(ctx); err != nil {
		return Listing{}, fmt.Errorf("list pharmacies: %w", err)
	}
	if listing.Manufacturers, err = r.ListManufacturers(ctx); err != nil {
		return Listing{}, fmt.Errorf("list manufacturers: %w", err)
	}
	if listing.Products, err = r.ListProducts(ctx); err != nil {
		return Listing{}, fmt.Errorf("list products: %w", err)
	}
	if listing.Strains, err = r.ListStrains(ctx); err != nil {
		return Listing{}, fmt.Errorf("list strains: %w", err)
	}
	return listing, nil
}

// ManufacturersByID loads display rows for the provided ids. Unknown ids are omitted.
func (r *Repository) ManufacturersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ManufacturerSummary, error) {
	out := make(map[uuid.UUID]ManufacturerSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Manufacturer
	if err := r.db.WithContext(ctx).
		Select("id", "name", "image_url").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = ManufacturerSummary{ID: row.ID, Name: row.Name, ImageURL: row.ImageURL}
	}
	return out, nil
}

func (r *Repository) listEntries(ctx context.Context, model any) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Model(model).
		Select("id", "name").
		Order("created_at ASC").
		Order("id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
