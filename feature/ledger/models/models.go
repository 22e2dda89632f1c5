package models

import (
	"time"
)

// ConversionEntry is one immutable line of category/bucket history for an
// inventory record. Entries are only ever inserted; there is no update or
// delete path, and the model deliberately carries no UpdatedAt.
type ConversionEntry struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Warehouse    string    `gorm:"size:64;index:idx_conversions_item" json:"warehouse"`
	ItemID       string    `gorm:"size:36;index:idx_conversions_item" json:"item_id"`
	FromCategory string    `gorm:"size:32" json:"from_category"`
	ToCategory   string    `gorm:"size:32" json:"to_category"`
	FromBucket   *string   `gorm:"size:128" json:"from_bucket"`
	ToBucket     *string   `gorm:"size:128" json:"to_bucket"`
	ConvertedBy  string    `gorm:"size:64" json:"converted_by"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm.
func (ConversionEntry) TableName() string {
	return "conversion_entries"
}
