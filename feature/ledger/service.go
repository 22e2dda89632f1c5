package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/ledger/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BucketChange says what to do with a record's bucket during a conversion.
// The zero value leaves the bucket alone, which is distinct from clearing it.
type BucketChange struct {
	set   bool
	clear bool
	name  string
}

// BucketUnchanged leaves the record's bucket as it is.
func BucketUnchanged() BucketChange {
	return BucketChange{}
}

// BucketCleared detaches the record from its bucket.
func BucketCleared() BucketChange {
	return BucketChange{clear: true}
}

// BucketTo assigns the record to the named bucket.
func BucketTo(name string) BucketChange {
	return BucketChange{set: true, name: name}
}

// ConversionFailure reports one item that could not be converted.
type ConversionFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// ConversionResult is the envelope for a bulk conversion. Both subsets are
// always reported; a bare boolean would hide partial failures.
type ConversionResult struct {
	Converted []string            `json:"converted"`
	Failed    []ConversionFailure `json:"failed"`
}

// Service writes the conversion ledger and applies the record mutations it
// describes.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	bus      events.Publisher
	registry *loads.Service
}

// NewService creates a new ledger service.
func NewService(db *gorm.DB, logger *zap.Logger, bus events.Publisher, registry *loads.Service) *Service {
	return &Service{db: db, logger: logger, bus: bus, registry: registry}
}

// RecordConversion reclassifies the given records into toCategory, writing
// one immutable ledger entry per item before each mutation. The ledger write
// is best-effort auditing: if it fails, the mutation still proceeds and the
// failure is logged.
func (s *Service) RecordConversion(ctx context.Context, scope inventorymodels.Scope, itemIDs []string, toCategory inventorymodels.Category, toBucket BucketChange, notes, actor string) (*ConversionResult, error) {
	if scope.Warehouse == "" {
		return nil, apperr.Validation("EMPTY_WAREHOUSE", "warehouse is required")
	}
	if !toCategory.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", fmt.Sprintf("unknown category %q", toCategory))
	}
	if len(itemIDs) == 0 {
		return nil, apperr.Validation("EMPTY_ITEMS", "no item ids given")
	}
	if toBucket.set {
		if toBucket.name == "" {
			return nil, apperr.Validation("EMPTY_BUCKET", "target bucket name is empty")
		}
		ok, err := s.registry.Exists(ctx, inventorymodels.Scope{Warehouse: scope.Warehouse, Category: toCategory}, toBucket.name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("UNKNOWN_BUCKET",
				fmt.Sprintf("no load %q in category %q", toBucket.name, toCategory))
		}
	}

	result := &ConversionResult{Converted: []string{}, Failed: []ConversionFailure{}}
	for _, itemID := range itemIDs {
		if err := s.convertOne(ctx, scope, itemID, toCategory, toBucket, notes, actor); err != nil {
			result.Failed = append(result.Failed, ConversionFailure{ItemID: itemID, Reason: err.Error()})
			continue
		}
		result.Converted = append(result.Converted, itemID)
	}

	if len(result.Failed) > 0 {
		return result, apperr.Partial(
			fmt.Sprintf("%d of %d conversions failed", len(result.Failed), len(itemIDs)))
	}
	return result, nil
}

func (s *Service) convertOne(ctx context.Context, scope inventorymodels.Scope, itemID string, toCategory inventorymodels.Category, toBucket BucketChange, notes, actor string) error {
	var record inventorymodels.InventoryRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND warehouse = ?", itemID, scope.Warehouse).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("RECORD_NOT_FOUND", fmt.Sprintf("no record %q", itemID))
	}
	if err != nil {
		return apperr.Transient("record lookup failed", err)
	}

	// Snapshot the current classification before mutating anything, so the
	// entry records where the item actually came from.
	entry := models.ConversionEntry{
		ID:           uuid.NewString(),
		Warehouse:    scope.Warehouse,
		ItemID:       record.ID,
		FromCategory: string(record.Category),
		ToCategory:   string(toCategory),
		FromBucket:   record.Bucket,
		ConvertedBy:  actor,
		Notes:        notes,
	}
	if toBucket.set {
		name := toBucket.name
		entry.ToBucket = &name
	} else if !toBucket.clear {
		entry.ToBucket = record.Bucket
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// History must not block the mutation itself.
		s.logger.Warn("Conversion ledger write failed, proceeding with mutation",
			zap.String("item_id", record.ID),
			zap.Error(err))
	}

	updates := map[string]any{"category": toCategory}
	if toBucket.set {
		updates["bucket"] = toBucket.name
	} else if toBucket.clear {
		updates["bucket"] = nil
	}
	err = s.db.WithContext(ctx).
		Model(&inventorymodels.InventoryRecord{}).
		Where("id = ? AND warehouse = ?", record.ID, scope.Warehouse).
		Updates(updates).Error
	if err != nil {
		return apperr.Transient("record update failed", err)
	}

	s.publish(ctx, events.ChangeEvent{
		Table:     record.TableName(),
		Op:        events.OpUpdated,
		Warehouse: scope.Warehouse,
		Category:  string(toCategory),
		RowID:     record.ID,
		At:        time.Now(),
	})
	return nil
}

// History returns every conversion entry recorded for one item, oldest
// first.
func (s *Service) History(ctx context.Context, scope inventorymodels.Scope, itemID string) ([]models.ConversionEntry, error) {
	var entries []models.ConversionEntry
	err := s.db.WithContext(ctx).
		Where("warehouse = ? AND item_id = ?", scope.Warehouse, itemID).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Transient("history lookup failed", err)
	}
	return entries, nil
}

func (s *Service) publish(ctx context.Context, ev events.ChangeEvent) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Change event publish failed",
			zap.String("table", ev.Table),
			zap.String("row_id", ev.RowID),
			zap.Error(err))
	}
}
