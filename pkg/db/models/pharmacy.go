package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pharmacy is a dispensary listed in the catalog.
type Pharmacy struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller left it empty.
func (p *Pharmacy) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
