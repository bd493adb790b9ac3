package relationships

import (
	"strings"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/google/uuid"
)

// Resolver maps lower-cased catalog names to ids for a single aggregation run.
type Resolver struct {
	pharmacies    map[string]uuid.UUID
	manufacturers map[string]uuid.UUID
	products      map[string]uuid.UUID
	strains       map[string]uuid.UUID
}

// NewResolver indexes the listing. The first entry wins when names collide.
func NewResolver(listing catalog.Listing) *Resolver {
	return &Resolver{
		pharmacies:    indexByName(listing.Pharmacies),
		manufacturers: indexByName(listing.Manufacturers),
		products:      indexByName(listing.Products),
		strains:       indexByName(listing.Strains),
	}
}

func indexByName(entries []catalog.Entry) map[string]uuid.UUID {
	index := make(map[string]uuid.UUID, len(entries))
	for _, entry := range entries {
		key := normalizeName(entry.Name)
		if key == "" {
			continue
		}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = entry.ID
	}
	return index
}

// normalizeName ignores surrounding whitespace and case; inner text must match exactly.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func lookup(index map[string]uuid.UUID, name string) (uuid.UUID, bool) {
	key := normalizeName(name)
	if key == "" {
		return uuid.Nil, false
	}
	id, ok := index[key]
	return id, ok
}

// Pharmacy resolves a pharmacy name.
func (r *Resolver) Pharmacy(name string) (uuid.UUID, bool) {
	return lookup(r.pharmacies, name)
}

// Manufacturer resolves a manufacturer name.
func (r *Resolver) Manufacturer(name string) (uuid.UUID, bool) {
	return lookup(r.manufacturers, name)
}

// Product resolves a product name.
func (r *Resolver) Product(name string) (uuid.UUID, bool) {
	return lookup(r.products, name)
}

// Strain resolves a strain name.
func (r *Resolver) Strain(name string) (uuid.UUID, bool) {
	return lookup(r.strains, name)
}
