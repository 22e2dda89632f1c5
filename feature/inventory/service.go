package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns inventory record reads, scan resolution, and scan marking.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	bus    events.Publisher
}

// NewService creates a new inventory service.
func NewService(db *gorm.DB, logger *zap.Logger, bus events.Publisher) *Service {
	return &Service{db: db, logger: logger, bus: bus}
}

// ListFilter selects records by equality/set filters.
type ListFilter struct {
	Category models.Category
	// Bucket filters by load name. BucketSet distinguishes "no filter"
	// from "bucket is null" (empty string with BucketSet).
	Bucket    string
	BucketSet bool
	// Scanned filters by scan state when non-nil.
	Scanned *bool
}

// List returns the records in scope matching the filter.
func (s *Service) List(ctx context.Context, scope models.Scope, f ListFilter) ([]models.InventoryRecord, error) {
	q := s.db.WithContext(ctx).Where("warehouse = ?", scope.Warehouse)
	if f.Category != "" {
		if !f.Category.Valid() {
			return nil, apperr.Validation("INVALID_CATEGORY", "unknown category: "+string(f.Category))
		}
		q = q.Where("category = ?", f.Category)
	}
	if f.BucketSet {
		if f.Bucket == "" {
			q = q.Where("bucket IS NULL")
		} else {
			q = q.Where("bucket = ?", f.Bucket)
		}
	}
	if f.Scanned != nil {
		q = q.Where("scanned = ?", *f.Scanned)
	}

	var records []models.InventoryRecord
	if err := q.Order("created_at, id").Find(&records).Error; err != nil {
		return nil, apperr.Transient("failed to list records", err)
	}
	return records, nil
}

// Get returns one record by id within the warehouse scope.
func (s *Service) Get(ctx context.Context, scope models.Scope, id string) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.WithContext(ctx).
		Where("warehouse = ? AND id = ?", scope.Warehouse, id).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("RECORD_NOT_FOUND", "inventory record not found: "+id)
	}
	if err != nil {
		return nil, apperr.Transient("failed to load record", err)
	}
	return &rec, nil
}

// MarkScanned flags a record as scanned. The update is conditional on
// scanned=false so two operators racing over the same serial converge: the
// loser's call succeeds as a no-op and both see scanned=true afterwards.
func (s *Service) MarkScanned(ctx context.Context, scope models.Scope, id, actor string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("warehouse = ? AND id = ? AND scanned = ?", scope.Warehouse, id, false).
		Updates(map[string]any{
			"scanned":    true,
			"scanned_at": now,
			"scanned_by": actor,
		})
	if res.Error != nil {
		return apperr.Transient("failed to mark record scanned", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either already scanned (idempotent success) or missing.
		rec, err := s.Get(ctx, scope, id)
		if err != nil {
			return err
		}
		if rec.Scanned {
			return nil
		}
		// Guarded update hit nothing yet the record is unscanned; a
		// concurrent writer changed state under us.
		return apperr.Transient("record state changed during scan", nil)
	}

	s.publish(ctx, events.ChangeEvent{
		Table: models.InventoryRecord{}.TableName(), Op: events.OpUpdated,
		Warehouse: scope.Warehouse, RowID: id, At: now,
	})
	return nil
}

// BulkFailure is one failed row of a bulk call.
type BulkFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// BulkResult reports both subsets of a bulk call, never a single boolean.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// MarkScannedBulk marks several records scanned. Row failures don't abort
// the run; the result carries both subsets and the call returns a partial
// error when any row failed.
func (s *Service) MarkScannedBulk(ctx context.Context, scope models.Scope, ids []string, actor string) (*BulkResult, error) {
	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		if err := s.MarkScanned(ctx, scope, id, actor); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ItemID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	if len(result.Failed) > 0 {
		return result, apperr.Partial(fmt.Sprintf("%d of %d scans failed", len(result.Failed), len(ids)))
	}
	return result, nil
}

// UpdateNotes replaces the free-text notes on a record.
func (s *Service) UpdateNotes(ctx context.Context, scope models.Scope, id, notes string) error {
	res := s.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("warehouse = ? AND id = ?", scope.Warehouse, id).
		Update("notes", notes)
	if res.Error != nil {
		return apperr.Transient("failed to update notes", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("RECORD_NOT_FOUND", "inventory record not found: "+id)
	}
	return nil
}

// publish emits a change event, logging instead of failing on error.
func (s *Service) publish(ctx context.Context, ev events.ChangeEvent) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Change event publish failed",
			zap.String("table", ev.Table),
			zap.String("row_id", ev.RowID),
			zap.Error(err))
	}
}
