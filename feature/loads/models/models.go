package models

import (
	"time"

	inventory "github.com/whaleen/warehouse-sub004/feature/inventory/models"
)

// Status is the lifecycle state of a load. Transitions only move forward;
// delivered is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusStaged    Status = "staged"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
)

var statusRank = map[Status]int{
	StatusActive:    0,
	StatusStaged:    1,
	StatusInTransit: 2,
	StatusDelivered: 3,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a forward move.
// Setting the same status again is allowed as a no-op.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == StatusDelivered {
		return next == StatusDelivered
	}
	return statusRank[next] >= statusRank[s]
}

// Load is a named sub-grouping of inventory within a category, e.g. a
// truckload or pallet. Inventory records reference it by name.
type Load struct {
	ID        string             `gorm:"column:id;primaryKey;size:36" json:"id"`
	Warehouse string             `gorm:"column:warehouse;size:64;uniqueIndex:idx_loads_name" json:"warehouse"`
	Category  inventory.Category `gorm:"column:category;size:32;uniqueIndex:idx_loads_name" json:"category"`
	Name      string             `gorm:"column:name;size:120;uniqueIndex:idx_loads_name" json:"name"`
	Status    Status             `gorm:"column:status;size:32" json:"status"`
	Notes     string             `gorm:"column:notes;type:text" json:"notes"`
	CreatedBy string             `gorm:"column:created_by;size:120" json:"created_by"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TableName overrides the table name.
func (Load) TableName() string {
	return "loads"
}

// LoadWithCount pairs a load with its live record count. The count is always
// computed from the current records, never stored.
type LoadWithCount struct {
	Load
	ItemCount int64 `json:"item_count"`
}
