package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Manufacturer is a producer brand listed in the catalog.
type Manufacturer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	ImageURL  *string   `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller left it empty.
func (m *Manufacturer) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
