package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	"github.com/whaleen/warehouse-sub004/feature/sessions/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service manages scanning sessions and their scanned-item sets.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	bus      events.Publisher
	registry *loads.Service
}

// NewService creates a new session service.
func NewService(db *gorm.DB, logger *zap.Logger, bus events.Publisher, registry *loads.Service) *Service {
	return &Service{db: db, logger: logger, bus: bus, registry: registry}
}

// Create opens a new session over a category/bucket scope. The scope is
// validated against the load registry before anything is written.
func (s *Service) Create(ctx context.Context, scope inventorymodels.Scope, name string, bucket *string, initialStatus models.Status, source models.Source, actor string) (*models.ScanningSession, error) {
	if scope.Warehouse == "" {
		return nil, apperr.Validation("EMPTY_WAREHOUSE", "warehouse is required")
	}
	if name == "" {
		return nil, apperr.Validation("EMPTY_NAME", "session name is required")
	}
	if !scope.Category.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", fmt.Sprintf("unknown category %q", scope.Category))
	}
	if initialStatus == "" {
		initialStatus = models.StatusActive
	}
	if initialStatus == models.StatusClosed || !initialStatus.Valid() {
		return nil, apperr.Validation("INVALID_STATUS",
			fmt.Sprintf("cannot create a session as %q", initialStatus))
	}
	if source == "" {
		source = models.SourceManual
	}
	if bucket != nil {
		ok, err := s.registry.Exists(ctx, scope, *bucket)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("INVALID_SCOPE",
				fmt.Sprintf("no load %q in category %q", *bucket, scope.Category))
		}
	}

	session := models.ScanningSession{
		ID:        uuid.NewString(),
		Warehouse: scope.Warehouse,
		Name:      name,
		Category:  scope.Category,
		Bucket:    bucket,
		Status:    initialStatus,
		Source:    source,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, apperr.Transient("session create failed", err)
	}

	s.publish(ctx, events.OpCreated, session)
	return &session, nil
}

// Get fetches one session by id.
func (s *Service) Get(ctx context.Context, scope inventorymodels.Scope, id string) (*models.ScanningSession, error) {
	var session models.ScanningSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND warehouse = ?", id, scope.Warehouse).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("SESSION_NOT_FOUND", fmt.Sprintf("no session %q", id))
	}
	if err != nil {
		return nil, apperr.Transient("session lookup failed", err)
	}
	return &session, nil
}

// List returns sessions in scope, optionally filtered by status, newest
// first.
func (s *Service) List(ctx context.Context, scope inventorymodels.Scope, status models.Status) ([]models.ScanningSession, error) {
	query := s.db.WithContext(ctx).Where("warehouse = ?", scope.Warehouse)
	if scope.Category != "" {
		if !scope.Category.Valid() {
			return nil, apperr.Validation("INVALID_CATEGORY", fmt.Sprintf("unknown category %q", scope.Category))
		}
		query = query.Where("category = ?", scope.Category)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.ScanningSession
	if err := query.Order("created_at DESC, id").Find(&sessions).Error; err != nil {
		return nil, apperr.Transient("session listing failed", err)
	}
	return sessions, nil
}

// RecordScan adds an item to the session's scanned set. Only active sessions
// accept scans. Duplicate scans of the same item are a no-op success; the
// unique index on (session_id, item_id) keeps the set a set even under
// racing scanners.
func (s *Service) RecordScan(ctx context.Context, scope inventorymodels.Scope, sessionID, itemID, actor string) error {
	if itemID == "" {
		return apperr.Validation("EMPTY_ITEM", "item id is required")
	}
	session, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.StatusActive {
		return apperr.InvalidTransition("SESSION_NOT_ACTIVE",
			fmt.Sprintf("session %q is %s, scans need an active session", sessionID, session.Status))
	}

	scan := models.SessionScan{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		ItemID:    itemID,
		ScannedBy: actor,
		ScannedAt: time.Now(),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&scan)
	if res.Error != nil {
		return apperr.Transient("scan insert failed", res.Error)
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, events.OpUpdated, *session)
	}
	return nil
}

// SetStatus advances a session's lifecycle. Transitions only move forward;
// closed is terminal and rejects every further call, including closed to
// closed. Closing stamps ClosedAt and ClosedBy.
func (s *Service) SetStatus(ctx context.Context, scope inventorymodels.Scope, id string, status models.Status, actor string) error {
	if !status.Valid() {
		return apperr.Validation("INVALID_STATUS", fmt.Sprintf("unknown status %q", status))
	}
	session, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if session.Status == status && status != models.StatusClosed {
		return nil
	}
	if !session.Status.CanTransitionTo(status) {
		return apperr.InvalidTransition("STATUS_REGRESSION",
			fmt.Sprintf("cannot move session from %s to %s", session.Status, status))
	}

	updates := map[string]any{"status": status, "updated_by": actor}
	if status == models.StatusClosed {
		updates["closed_at"] = time.Now()
		updates["closed_by"] = actor
	}
	err = s.db.WithContext(ctx).
		Model(&models.ScanningSession{}).
		Where("id = ?", session.ID).
		Updates(updates).Error
	if err != nil {
		return apperr.Transient("status update failed", err)
	}

	session.Status = status
	s.publish(ctx, events.OpUpdated, *session)
	return nil
}

// Progress reports how far along a session is. ScannedCount is the size of
// the scanned set; TotalItems is computed live from the records currently
// matching the session's scope, because the scope's membership keeps moving
// under concurrent reclassification and syncs.
func (s *Service) Progress(ctx context.Context, scope inventorymodels.Scope, id string) (*models.Progress, error) {
	session, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	var scanned int64
	err = s.db.WithContext(ctx).
		Model(&models.SessionScan{}).
		Where("session_id = ?", session.ID).
		Count(&scanned).Error
	if err != nil {
		return nil, apperr.Transient("scan count failed", err)
	}

	totalQuery := s.db.WithContext(ctx).
		Model(&inventorymodels.InventoryRecord{}).
		Where("warehouse = ? AND category = ?", session.Warehouse, session.Category)
	if session.Bucket != nil {
		totalQuery = totalQuery.Where("bucket = ?", *session.Bucket)
	}
	var total int64
	if err := totalQuery.Count(&total).Error; err != nil {
		return nil, apperr.Transient("item count failed", err)
	}

	return &models.Progress{SessionID: session.ID, ScannedCount: scanned, TotalItems: total}, nil
}

// SpawnForLoads opens draft sessions for freshly synced buckets. Buckets
// that already have an open session are skipped so repeated syncs do not
// pile up duplicates. Used by the reconciliation hand-off.
func (s *Service) SpawnForLoads(ctx context.Context, scope inventorymodels.Scope, buckets []string, actor string) ([]models.ScanningSession, error) {
	var spawned []models.ScanningSession
	var failed []string
	for _, bucket := range buckets {
		var open int64
		err := s.db.WithContext(ctx).
			Model(&models.ScanningSession{}).
			Where("warehouse = ? AND category = ? AND bucket = ? AND status <> ?",
				scope.Warehouse, scope.Category, bucket, models.StatusClosed).
			Count(&open).Error
		if err != nil {
			failed = append(failed, bucket)
			continue
		}
		if open > 0 {
			continue
		}

		session, err := s.Create(ctx, scope, fmt.Sprintf("sync %s", bucket), &bucket,
			models.StatusDraft, models.SourceExternalSync, actor)
		if err != nil {
			s.logger.Warn("Session spawn failed",
				zap.String("bucket", bucket),
				zap.Error(err))
			failed = append(failed, bucket)
			continue
		}
		spawned = append(spawned, *session)
	}

	if len(failed) > 0 {
		return spawned, apperr.Partial(
			fmt.Sprintf("%d of %d session spawns failed", len(failed), len(buckets)))
	}
	return spawned, nil
}

func (s *Service) publish(ctx context.Context, op events.Op, session models.ScanningSession) {
	ev := events.ChangeEvent{
		Table:     session.TableName(),
		Op:        op,
		Warehouse: session.Warehouse,
		Category:  string(session.Category),
		RowID:     session.ID,
		At:        time.Now(),
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Change event publish failed",
			zap.String("table", ev.Table),
			zap.String("row_id", ev.RowID),
			zap.Error(err))
	}
}
