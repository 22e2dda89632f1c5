package models

import (
	"time"

	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
)

// ChangeKind classifies what a reconciliation run did to a record.
type ChangeKind string

const (
	ChangeNewItem     ChangeKind = "new_item"
	ChangeUpdatedItem ChangeKind = "updated_item"
)

// ChangeEntry is one line of reconciliation output: a record that a run
// inserted or updated. Delta holds the field-level diff as JSON for
// updated_item entries.
type ChangeEntry struct {
	ID        string                   `gorm:"primaryKey;size:36" json:"id"`
	Warehouse string                   `gorm:"size:64;index:idx_changes_run" json:"warehouse"`
	RunID     string                   `gorm:"size:36;index:idx_changes_run" json:"run_id"`
	Category  inventorymodels.Category `gorm:"size:32" json:"category"`
	ItemID    string                   `gorm:"size:36;index" json:"item_id"`
	Kind      ChangeKind               `gorm:"size:16" json:"kind"`
	Delta     string                   `gorm:"type:text" json:"delta,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// TableName overrides the table name used by gorm.
func (ChangeEntry) TableName() string {
	return "change_entries"
}

// ConflictStatus is the resolution state of a conflict.
type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
)

// Conflict is an ambiguous external match a run refused to auto-resolve:
// one snapshot row landing on more than one internal record. The candidates
// stay untouched until an operator picks one.
type Conflict struct {
	ID           string                   `gorm:"primaryKey;size:36" json:"id"`
	Warehouse    string                   `gorm:"size:64;index:idx_conflicts_scope" json:"warehouse"`
	RunID        string                   `gorm:"size:36;index" json:"run_id"`
	Category     inventorymodels.Category `gorm:"size:32;index:idx_conflicts_scope" json:"category"`
	Code         string                   `gorm:"size:128" json:"code"`
	MatchedField string                   `gorm:"size:16" json:"matched_field"`
	CandidateIDs string                   `gorm:"type:text" json:"candidate_ids"`
	Incoming     string                   `gorm:"type:text" json:"incoming"`
	Status       ConflictStatus           `gorm:"size:16;index" json:"status"`
	ResolvedBy   string                   `gorm:"size:64" json:"resolved_by"`
	ResolvedAt   *time.Time               `json:"resolved_at"`
	CreatedAt    time.Time                `json:"created_at"`
}

// TableName overrides the table name used by gorm.
func (Conflict) TableName() string {
	return "conflicts"
}
