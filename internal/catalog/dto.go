package catalog

import "github.com/google/uuid"

// Entry is the (id, name) pair the resolver indexes.
type Entry struct {
	ID   uuid.UUID
	Name string
}

// Listing is the full catalog state for one aggregation run.
type Listing struct {
	Pharmacies    []Entry
	Manufacturers []Entry
	Products      []Entry
	Strains       []Entry
}

// ManufacturerSummary carries the display data joined onto ranking results.
type ManufacturerSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL *string   `json:"image_url,omitempty"`
}
