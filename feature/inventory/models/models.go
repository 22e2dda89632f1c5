package models

import (
	"time"
)

// Category is the top-level inventory classification.
type Category string

const (
	CategorySalvage       Category = "salvage"
	CategoryFinishedGoods Category = "finished_goods"
	CategoryLocalStock    Category = "local_stock"
)

// Categories returns the fixed set of valid categories.
func Categories() []Category {
	return []Category{CategorySalvage, CategoryFinishedGoods, CategoryLocalStock}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySalvage, CategoryFinishedGoods, CategoryLocalStock:
		return true
	default:
		return false
	}
}

// Scope is the explicit tenant + category context passed into engine calls.
// There is no ambient "active location"; every operation names its scope.
// Category may be empty for operations that span categories (e.g. resolving
// a scan without a category filter).
type Scope struct {
	Warehouse string
	Category  Category
}

// InventoryRecord is a physical appliance tracked in the warehouse.
type InventoryRecord struct {
	ID        string   `gorm:"column:id;primaryKey;size:36" json:"id"`
	Warehouse string   `gorm:"column:warehouse;size:64;index:idx_records_scope" json:"warehouse"`
	Category  Category `gorm:"column:category;size:32;index:idx_records_scope" json:"category"`
	// Bucket names the Load this record belongs to, within its category.
	// Nil means unassigned. The name is a reference, not a foreign key: a
	// non-clearing load delete can leave it dangling on purpose.
	Bucket *string `gorm:"column:bucket;size:120;index" json:"bucket"`

	// Identifying codes, strongest first. Serial is expected unique when
	// present but duplicates are tolerated and surfaced, never assumed away.
	Serial string `gorm:"column:serial;size:120;index" json:"serial"`
	CSO    string `gorm:"column:cso;size:120;index" json:"cso"`
	Model  string `gorm:"column:model;size:120;index" json:"model"`

	Scanned   bool       `gorm:"column:scanned" json:"scanned"`
	ScannedAt *time.Time `gorm:"column:scanned_at" json:"scanned_at"`
	ScannedBy string     `gorm:"column:scanned_by;size:120" json:"scanned_by"`

	Notes     string  `gorm:"column:notes;type:text" json:"notes"`
	ProductID *string `gorm:"column:product_id;size:36" json:"product_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (InventoryRecord) TableName() string {
	return "inventory_records"
}
