package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/greenleague-backend/pkg/types"
)

// PharmacyRelationship is one aggregated snapshot row for a statistical date.
// ManufacturerID, ProductID and StrainID are nullable parts of the composite key;
// at least one of them is always set.
type PharmacyRelationship struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID       uuid.UUID      `gorm:"column:pharmacy_id;type:uuid;not null"`
	ManufacturerID   *uuid.UUID     `gorm:"column:manufacturer_id;type:uuid"`
	ProductID        *uuid.UUID     `gorm:"column:product_id;type:uuid"`
	StrainID         *uuid.UUID     `gorm:"column:strain_id;type:uuid"`
	StatDate         types.StatDate `gorm:"column:stat_date;type:date;not null"`
	OrderCount       int64          `gorm:"column:order_count;not null;default:0"`
	SalesVolumeGrams float64        `gorm:"column:sales_volume_grams;not null;default:0"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the snapshot table name.
func (PharmacyRelationship) TableName() string {
	return "pharmacy_relationships"
}

// BeforeCreate assigns an id when the caller left it empty.
func (p *PharmacyRelationship) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
