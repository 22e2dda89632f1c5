package loads

import (
	"context"
	"strings"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the load registry. It owns load metadata lifecycle and keeps
// every inventory record's bucket reference valid: dangling references can
// only arise from an explicit non-clearing delete.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	bus    events.Publisher
}

// NewService creates a new load registry.
func NewService(db *gorm.DB, logger *zap.Logger, bus events.Publisher) *Service {
	return &Service{db: db, logger: logger, bus: bus}
}

func (s *Service) validateScope(scope inventorymodels.Scope, name string) error {
	if !scope.Category.Valid() {
		return apperr.Validation("INVALID_CATEGORY", "unknown category: "+string(scope.Category))
	}
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("EMPTY_NAME", "load name must not be empty")
	}
	return nil
}

// get fetches one load row within a transaction or the base handle.
func (s *Service) get(ctx context.Context, tx *gorm.DB, scope inventorymodels.Scope, name string) (*models.Load, error) {
	var load models.Load
	err := tx.WithContext(ctx).
		Where("warehouse = ? AND category = ? AND name = ?", scope.Warehouse, scope.Category, name).
		First(&load).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Transient("failed to load load row", err)
	}
	return &load, nil
}

// Create registers a new load. (category, name) must be unique.
func (s *Service) Create(ctx context.Context, scope inventorymodels.Scope, name, notes, createdBy string) (*models.Load, error) {
	if err := s.validateScope(scope, name); err != nil {
		return nil, err
	}

	existing, err := s.get(ctx, s.db, scope, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("DUPLICATE_LOAD", "load already exists: "+name)
	}

	load := models.Load{
		ID:        uuid.NewString(),
		Warehouse: scope.Warehouse,
		Category:  scope.Category,
		Name:      name,
		Status:    models.StatusActive,
		Notes:     notes,
		CreatedBy: createdBy,
	}
	if err := s.db.WithContext(ctx).Create(&load).Error; err != nil {
		return nil, apperr.Transient("failed to create load", err)
	}

	s.publish(ctx, events.OpCreated, load)
	return &load, nil
}

// Get returns one load by name.
func (s *Service) Get(ctx context.Context, scope inventorymodels.Scope, name string) (*models.Load, error) {
	if err := s.validateScope(scope, name); err != nil {
		return nil, err
	}
	load, err := s.get(ctx, s.db, scope, name)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, apperr.NotFound("LOAD_NOT_FOUND", "load not found: "+name)
	}
	return load, nil
}

// Exists reports whether a load with this name exists in the scope.
// Sessions and conversions use it to validate category/bucket pairings.
func (s *Service) Exists(ctx context.Context, scope inventorymodels.Scope, name string) (bool, error) {
	load, err := s.get(ctx, s.db, scope, name)
	if err != nil {
		return false, err
	}
	return load != nil, nil
}

// List returns the loads in a category with live record counts.
func (s *Service) List(ctx context.Context, scope inventorymodels.Scope, status models.Status) ([]models.LoadWithCount, error) {
	if !scope.Category.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", "unknown category: "+string(scope.Category))
	}
	q := s.db.WithContext(ctx).
		Where("warehouse = ? AND category = ?", scope.Warehouse, scope.Category)
	if status != "" {
		if !status.Valid() {
			return nil, apperr.Validation("INVALID_STATUS", "unknown status: "+string(status))
		}
		q = q.Where("status = ?", status)
	}

	var loads []models.Load
	if err := q.Order("name").Find(&loads).Error; err != nil {
		return nil, apperr.Transient("failed to list loads", err)
	}

	result := make([]models.LoadWithCount, 0, len(loads))
	for _, load := range loads {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&inventorymodels.InventoryRecord{}).
			Where("warehouse = ? AND category = ? AND bucket = ?", scope.Warehouse, scope.Category, load.Name).
			Count(&count).Error
		if err != nil {
			return nil, apperr.Transient("failed to count load records", err)
		}
		result = append(result, models.LoadWithCount{Load: load, ItemCount: count})
	}
	return result, nil
}

// Rename changes a load's name and repoints every referencing record, as a
// single transaction. Re-applying a completed rename converges as a no-op.
func (s *Service) Rename(ctx context.Context, scope inventorymodels.Scope, oldName, newName string) error {
	if err := s.validateScope(scope, oldName); err != nil {
		return err
	}
	if strings.TrimSpace(newName) == "" {
		return apperr.Validation("EMPTY_NAME", "new load name must not be empty")
	}
	if oldName == newName {
		return nil
	}

	var renamed *models.Load
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oldLoad, err := s.get(ctx, tx, scope, oldName)
		if err != nil {
			return err
		}
		newLoad, err := s.get(ctx, tx, scope, newName)
		if err != nil {
			return err
		}

		if oldLoad == nil {
			if newLoad != nil {
				// Retry of an already-applied rename.
				return nil
			}
			return apperr.NotFound("LOAD_NOT_FOUND", "load not found: "+oldName)
		}
		if newLoad != nil {
			return apperr.Conflict("DUPLICATE_LOAD", "load already exists: "+newName)
		}

		if err := tx.Model(&models.Load{}).
			Where("id = ?", oldLoad.ID).
			Update("name", newName).Error; err != nil {
			return apperr.Transient("failed to rename load", err)
		}

		// Cascade inside the same transaction: the load must never stay
		// renamed while records still point at the old name.
		if err := tx.Model(&inventorymodels.InventoryRecord{}).
			Where("warehouse = ? AND category = ? AND bucket = ?", scope.Warehouse, scope.Category, oldName).
			Update("bucket", newName).Error; err != nil {
			return apperr.Transient("failed to repoint records", err)
		}

		oldLoad.Name = newName
		renamed = oldLoad
		return nil
	})
	if err != nil {
		return err
	}
	if renamed != nil {
		// Events go out only after the commit.
		s.publish(ctx, events.OpUpdated, *renamed)
	}
	return nil
}

// Merge repoints every record from the source loads to the target, then
// deletes the source load rows. Records are never deleted. When the target
// is missing and createTargetIfMissing is false, the call fails before
// touching any record.
func (s *Service) Merge(ctx context.Context, scope inventorymodels.Scope, sourceNames []string, targetName string, createTargetIfMissing bool, actor string) error {
	if err := s.validateScope(scope, targetName); err != nil {
		return err
	}
	if len(sourceNames) == 0 {
		return apperr.Validation("EMPTY_SOURCES", "merge requires at least one source load")
	}

	var merged *models.Load
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.get(ctx, tx, scope, targetName)
		if err != nil {
			return err
		}
		if target == nil {
			if !createTargetIfMissing {
				return apperr.NotFound("LOAD_NOT_FOUND", "merge target not found: "+targetName)
			}
			created := models.Load{
				ID:        uuid.NewString(),
				Warehouse: scope.Warehouse,
				Category:  scope.Category,
				Name:      targetName,
				Status:    models.StatusActive,
				CreatedBy: actor,
			}
			if err := tx.Create(&created).Error; err != nil {
				return apperr.Transient("failed to create merge target", err)
			}
			target = &created
		}

		for _, source := range sourceNames {
			if source == targetName {
				continue
			}
			if err := tx.Model(&inventorymodels.InventoryRecord{}).
				Where("warehouse = ? AND category = ? AND bucket = ?", scope.Warehouse, scope.Category, source).
				Update("bucket", targetName).Error; err != nil {
				return apperr.Transient("failed to repoint records from "+source, err)
			}
			// Only the metadata row is deleted; target status is never
			// cascaded regardless of how the statuses differ.
			if err := tx.
				Where("warehouse = ? AND category = ? AND name = ?", scope.Warehouse, scope.Category, source).
				Delete(&models.Load{}).Error; err != nil {
				return apperr.Transient("failed to delete source load "+source, err)
			}
		}

		merged = target
		return nil
	})
	if err != nil {
		return err
	}
	if merged != nil {
		s.publish(ctx, events.OpUpdated, *merged)
	}
	return nil
}

// SetStatus advances a load's status. Backward moves and any move out of
// delivered fail; setting the current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, scope inventorymodels.Scope, name string, status models.Status) error {
	if err := s.validateScope(scope, name); err != nil {
		return err
	}
	if !status.Valid() {
		return apperr.Validation("INVALID_STATUS", "unknown status: "+string(status))
	}

	load, err := s.Get(ctx, scope, name)
	if err != nil {
		return err
	}
	if load.Status == status {
		return nil
	}
	if !load.Status.CanTransitionTo(status) {
		return apperr.InvalidTransition("STATUS_REGRESSION",
			"cannot move load from "+string(load.Status)+" to "+string(status))
	}

	if err := s.db.WithContext(ctx).Model(&models.Load{}).
		Where("id = ?", load.ID).
		Update("status", status).Error; err != nil {
		return apperr.Transient("failed to update load status", err)
	}

	load.Status = status
	s.publish(ctx, events.OpUpdated, *load)
	return nil
}

// UpdateMetadata replaces a load's notes. No cascade.
func (s *Service) UpdateMetadata(ctx context.Context, scope inventorymodels.Scope, name, notes string) error {
	load, err := s.Get(ctx, scope, name)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.Load{}).
		Where("id = ?", load.ID).
		Update("notes", notes).Error; err != nil {
		return apperr.Transient("failed to update load metadata", err)
	}
	return nil
}

// Delete removes a load's metadata row. With clearItems, referencing
// records are detached to bucket=null first. Without it, their bucket
// names are left dangling: an accepted, operator-chosen inconsistency.
func (s *Service) Delete(ctx context.Context, scope inventorymodels.Scope, name string, clearItems bool) error {
	load, err := s.Get(ctx, scope, name)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clearItems {
			if err := tx.Model(&inventorymodels.InventoryRecord{}).
				Where("warehouse = ? AND category = ? AND bucket = ?", scope.Warehouse, scope.Category, name).
				Update("bucket", nil).Error; err != nil {
				return apperr.Transient("failed to detach records", err)
			}
		}
		if err := tx.Where("id = ?", load.ID).Delete(&models.Load{}).Error; err != nil {
			return apperr.Transient("failed to delete load", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !clearItems {
		var dangling int64
		if err := s.db.WithContext(ctx).Model(&inventorymodels.InventoryRecord{}).
			Where("warehouse = ? AND category = ? AND bucket = ?", scope.Warehouse, scope.Category, name).
			Count(&dangling).Error; err == nil && dangling > 0 {
			s.logger.Warn("Load deleted without clearing items",
				zap.String("load", name),
				zap.Int64("dangling_records", dangling))
		}
	}

	s.publish(ctx, events.OpDeleted, *load)
	return nil
}

func (s *Service) publish(ctx context.Context, op events.Op, load models.Load) {
	ev := events.ChangeEvent{
		Table: models.Load{}.TableName(), Op: op,
		Warehouse: load.Warehouse, Category: string(load.Category),
		RowID: load.ID, At: time.Now(),
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Change event publish failed",
			zap.String("table", ev.Table),
			zap.String("row_id", ev.RowID),
			zap.Error(err))
	}
}
