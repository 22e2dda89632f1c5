package models

import (
	"time"

	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
)

// Status is the lifecycle state of a scanning session.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

var statusRank = map[Status]int{
	StatusDraft:  0,
	StatusActive: 1,
	StatusClosed: 2,
}

// Valid reports whether s is a known session status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a legal forward
// transition. Closed is terminal: nothing leaves it, not even closed itself.
func (s Status) CanTransitionTo(target Status) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	if s == StatusClosed {
		return false
	}
	return statusRank[target] >= statusRank[s]
}

// Source says how a session came into existence.
type Source string

const (
	SourceManual       Source = "manual"
	SourceExternalSync Source = "external_sync"
	SourceSystem       Source = "system"
)

// ScanningSession is a bounded unit of scanning work over one
// category/bucket scope. It references inventory records by id only; the
// authoritative item set is always computed live from the records.
type ScanningSession struct {
	ID        string                   `gorm:"primaryKey;size:36" json:"id"`
	Warehouse string                   `gorm:"size:64;index:idx_sessions_scope" json:"warehouse"`
	Name      string                   `gorm:"size:128" json:"name"`
	Category  inventorymodels.Category `gorm:"size:32;index:idx_sessions_scope" json:"category"`
	Bucket    *string                  `gorm:"size:128" json:"bucket"`
	Status    Status                   `gorm:"size:16;index" json:"status"`
	Source    Source                   `gorm:"size:32" json:"source"`
	CreatedBy string                   `gorm:"size:64" json:"created_by"`
	UpdatedBy string                   `gorm:"size:64" json:"updated_by"`
	ClosedBy  string                   `gorm:"size:64" json:"closed_by"`
	ClosedAt  *time.Time               `json:"closed_at"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// TableName overrides the table name used by gorm.
func (ScanningSession) TableName() string {
	return "scanning_sessions"
}

// SessionScan is one scanned item inside a session. The composite unique
// index gives the scanned set its set semantics.
type SessionScan struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:36;uniqueIndex:idx_session_item" json:"session_id"`
	ItemID    string    `gorm:"size:36;uniqueIndex:idx_session_item" json:"item_id"`
	ScannedBy string    `gorm:"size:64" json:"scanned_by"`
	ScannedAt time.Time `json:"scanned_at"`
}

// TableName overrides the table name used by gorm.
func (SessionScan) TableName() string {
	return "session_scans"
}

// Progress is the derived view of a session's completion. TotalItems is
// computed from the current records in scope on every call, never cached.
type Progress struct {
	SessionID    string `json:"session_id"`
	ScannedCount int64  `json:"scanned_count"`
	TotalItems   int64  `json:"total_items"`
}
