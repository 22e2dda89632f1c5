package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/core/lock"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	loadmodels "github.com/whaleen/warehouse-sub004/feature/loads/models"
	"github.com/whaleen/warehouse-sub004/feature/reconcile/models"
	"github.com/whaleen/warehouse-sub004/feature/sessions"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runLockTTL bounds how long a crashed run can block the next one.
const runLockTTL = 10 * time.Minute

// RowFailure reports one snapshot row a run could not apply.
type RowFailure struct {
	Index  int    `json:"index"`
	Serial string `json:"serial,omitempty"`
	CSO    string `json:"cso,omitempty"`
	Reason string `json:"reason"`
}

// RunOutcome is the envelope a reconciliation run returns. Both the counts
// and the failed rows are always reported.
type RunOutcome struct {
	RunID     string                   `json:"run_id"`
	Category  inventorymodels.Category `json:"category"`
	DryRun    bool                     `json:"dry_run"`
	Inserted  int                      `json:"inserted"`
	Updated   int                      `json:"updated"`
	Unchanged int                      `json:"unchanged"`
	// Conflicts counts the snapshot rows that matched more than one
	// internal record during this run. A row whose code already has an
	// open conflict still counts here, but no duplicate conflict row is
	// written for it.
	Conflicts int          `json:"conflicts"`
	Spawned   int          `json:"spawned_sessions"`
	Failed    []RowFailure `json:"failed"`
}

// Service merges external ERP snapshots into the internal inventory store.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	bus      events.Publisher
	locker   lock.Locker
	source   SnapshotSource
	registry *loads.Service
	sessions *sessions.Service
}

// NewService creates a new reconciliation service.
func NewService(db *gorm.DB, logger *zap.Logger, bus events.Publisher, locker lock.Locker, source SnapshotSource, registry *loads.Service, sessionSvc *sessions.Service) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		bus:      bus,
		locker:   locker,
		source:   source,
		registry: registry,
		sessions: sessionSvc,
	}
}

// index holds the internal records of one category keyed the same way the
// match resolver keys codes: serial first, then grouping code.
type index struct {
	bySerial map[string][]inventorymodels.InventoryRecord
	byCSO    map[string][]inventorymodels.InventoryRecord
}

func buildIndex(records []inventorymodels.InventoryRecord) *index {
	idx := &index{
		bySerial: map[string][]inventorymodels.InventoryRecord{},
		byCSO:    map[string][]inventorymodels.InventoryRecord{},
	}
	for _, r := range records {
		idx.add(r)
	}
	return idx
}

func (i *index) add(r inventorymodels.InventoryRecord) {
	if r.Serial != "" {
		i.bySerial[r.Serial] = append(i.bySerial[r.Serial], r)
	}
	if r.CSO != "" {
		i.byCSO[r.CSO] = append(i.byCSO[r.CSO], r)
	}
}

// match resolves one snapshot row against the index. Serial wins over CSO
// and a non-empty level is never skipped, mirroring interactive resolution.
func (i *index) match(row SnapshotRow) (candidates []inventorymodels.InventoryRecord, field string) {
	if row.Serial != "" {
		if found := i.bySerial[row.Serial]; len(found) > 0 {
			return found, "serial"
		}
	}
	if row.CSO != "" {
		if found := i.byCSO[row.CSO]; len(found) > 0 {
			return found, "cso"
		}
	}
	return nil, ""
}

// Run executes one reconciliation pass for a category. Runs for the same
// category are serialized by an advisory lock; a second caller gets a
// conflict error instead of racing the first. Rows fail individually, never
// the whole run. Internal records absent from the snapshot are left alone,
// since the export may be partial.
//
// With dryRun set, nothing is written; the outcome reports what a real run
// would have done.
func (s *Service) Run(ctx context.Context, scope inventorymodels.Scope, actor string, dryRun bool) (*RunOutcome, error) {
	if scope.Warehouse == "" {
		return nil, apperr.Validation("EMPTY_WAREHOUSE", "warehouse is required")
	}
	if !scope.Category.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", fmt.Sprintf("unknown category %q", scope.Category))
	}

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("reconcile:%s:%s", scope.Warehouse, scope.Category), runLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, apperr.Conflict("RUN_IN_FLIGHT",
				fmt.Sprintf("a reconciliation run for %q is already in flight", scope.Category))
		}
		return nil, apperr.Transient("could not acquire run lock", err)
	}
	defer release()

	rows, err := s.source.Fetch(ctx, scope.Category)
	if err != nil {
		return nil, apperr.Transient("snapshot fetch failed", err)
	}

	var internal []inventorymodels.InventoryRecord
	err = s.db.WithContext(ctx).
		Where("warehouse = ? AND category = ?", scope.Warehouse, scope.Category).
		Order("created_at, id").
		Find(&internal).Error
	if err != nil {
		return nil, apperr.Transient("internal record load failed", err)
	}
	idx := buildIndex(internal)

	outcome := &RunOutcome{
		RunID:    uuid.NewString(),
		Category: scope.Category,
		DryRun:   dryRun,
		Failed:   []RowFailure{},
	}
	knownBuckets, err := s.knownBuckets(ctx, scope)
	if err != nil {
		return nil, err
	}
	var newBuckets []string

	for i, row := range rows {
		candidates, field := idx.match(row)
		switch {
		case len(candidates) == 0:
			created, err := s.insertRow(ctx, scope, outcome.RunID, row, knownBuckets, &newBuckets, dryRun)
			if err != nil {
				s.logger.Warn("Snapshot row insert failed",
					zap.Int("index", i),
					zap.String("serial", row.Serial),
					zap.Error(err))
				outcome.Failed = append(outcome.Failed, RowFailure{Index: i, Serial: row.Serial, CSO: row.CSO, Reason: err.Error()})
				continue
			}
			// Keep the index current so a duplicate row later in the same
			// snapshot matches instead of inserting twice.
			idx.add(created)
			outcome.Inserted++

		case len(candidates) == 1:
			changed, err := s.updateRow(ctx, scope, outcome.RunID, candidates[0], row, knownBuckets, &newBuckets, dryRun)
			if err != nil {
				s.logger.Warn("Snapshot row update failed",
					zap.Int("index", i),
					zap.String("serial", row.Serial),
					zap.Error(err))
				outcome.Failed = append(outcome.Failed, RowFailure{Index: i, Serial: row.Serial, CSO: row.CSO, Reason: err.Error()})
				continue
			}
			if changed {
				outcome.Updated++
			} else {
				outcome.Unchanged++
			}

		default:
			// Ambiguity is surfaced, never auto-resolved.
			if err := s.raiseConflict(ctx, scope, outcome.RunID, row, field, candidates, dryRun); err != nil {
				outcome.Failed = append(outcome.Failed, RowFailure{Index: i, Serial: row.Serial, CSO: row.CSO, Reason: err.Error()})
				continue
			}
			outcome.Conflicts++
		}
	}

	// Hand-off. The run's mutations are already committed; a spawn failure
	// here is logged, not rolled back.
	if !dryRun && len(newBuckets) > 0 {
		spawned, err := s.sessions.SpawnForLoads(ctx, scope, newBuckets, actor)
		if err != nil {
			s.logger.Warn("Session spawn after run failed",
				zap.String("run_id", outcome.RunID),
				zap.Error(err))
		}
		outcome.Spawned = len(spawned)
	}

	s.logger.Info("Reconciliation run finished",
		zap.String("run_id", outcome.RunID),
		zap.String("category", string(scope.Category)),
		zap.Bool("dry_run", dryRun),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("unchanged", outcome.Unchanged),
		zap.Int("conflicts", outcome.Conflicts),
		zap.Int("failed", len(outcome.Failed)))

	if len(outcome.Failed) > 0 {
		return outcome, apperr.Partial(
			fmt.Sprintf("%d of %d snapshot rows failed", len(outcome.Failed), len(rows)))
	}
	return outcome, nil
}

func (s *Service) knownBuckets(ctx context.Context, scope inventorymodels.Scope) (map[string]bool, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&loadmodels.Load{}).
		Where("warehouse = ? AND category = ?", scope.Warehouse, scope.Category).
		Pluck("name", &names).Error
	if err != nil {
		return nil, apperr.Transient("load name listing failed", err)
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	return known, nil
}

func (s *Service) insertRow(ctx context.Context, scope inventorymodels.Scope, runID string, row SnapshotRow, knownBuckets map[string]bool, newBuckets *[]string, dryRun bool) (inventorymodels.InventoryRecord, error) {
	record := inventorymodels.InventoryRecord{
		ID:        uuid.NewString(),
		Warehouse: scope.Warehouse,
		Category:  scope.Category,
		Serial:    row.Serial,
		CSO:       row.CSO,
		Model:     row.Model,
		Notes:     row.Notes,
	}
	if row.Bucket != "" {
		bucket := row.Bucket
		record.Bucket = &bucket
	}

	if dryRun {
		if row.Bucket != "" && !knownBuckets[row.Bucket] {
			knownBuckets[row.Bucket] = true
			*newBuckets = append(*newBuckets, row.Bucket)
		}
		return record, nil
	}

	// A record may not reference a load that does not exist, so implicit
	// load creation happens before the insert.
	if row.Bucket != "" && !knownBuckets[row.Bucket] {
		if _, err := s.registry.Create(ctx, scope, row.Bucket, "created by reconciliation", "reconciliation"); err != nil {
			// Another path may have created it between the listing and now.
			if apperr.KindOf(err) != apperr.KindConflict {
				return record, err
			}
		}
		knownBuckets[row.Bucket] = true
		*newBuckets = append(*newBuckets, row.Bucket)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return record, err
	}
	s.writeChange(ctx, models.ChangeEntry{
		ID:        uuid.NewString(),
		Warehouse: scope.Warehouse,
		RunID:     runID,
		Category:  scope.Category,
		ItemID:    record.ID,
		Kind:      models.ChangeNewItem,
	})
	s.publish(ctx, events.OpCreated, scope, record.ID)
	return record, nil
}

// fieldDelta is one changed field inside an updated_item change entry.
type fieldDelta struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// diffRow compares the tracked fields of an internal record against a
// snapshot row. Empty snapshot fields do not clobber internal values; the
// export leaves fields blank when it has nothing to say about them.
func diffRow(record inventorymodels.InventoryRecord, row SnapshotRow) (map[string]any, map[string]fieldDelta) {
	updates := map[string]any{}
	delta := map[string]fieldDelta{}

	currentBucket := ""
	if record.Bucket != nil {
		currentBucket = *record.Bucket
	}
	if row.Bucket != "" && row.Bucket != currentBucket {
		updates["bucket"] = row.Bucket
		delta["bucket"] = fieldDelta{From: currentBucket, To: row.Bucket}
	}
	if row.Model != "" && row.Model != record.Model {
		updates["model"] = row.Model
		delta["model"] = fieldDelta{From: record.Model, To: row.Model}
	}
	if row.CSO != "" && row.CSO != record.CSO {
		updates["cso"] = row.CSO
		delta["cso"] = fieldDelta{From: record.CSO, To: row.CSO}
	}
	if row.Notes != "" && row.Notes != record.Notes {
		updates["notes"] = row.Notes
		delta["notes"] = fieldDelta{From: record.Notes, To: row.Notes}
	}
	return updates, delta
}

func (s *Service) updateRow(ctx context.Context, scope inventorymodels.Scope, runID string, record inventorymodels.InventoryRecord, row SnapshotRow, knownBuckets map[string]bool, newBuckets *[]string, dryRun bool) (bool, error) {
	updates, delta := diffRow(record, row)
	if len(updates) == 0 {
		return false, nil
	}

	bucket, bucketChanged := updates["bucket"].(string)

	if dryRun {
		if bucketChanged && knownBuckets != nil && !knownBuckets[bucket] {
			knownBuckets[bucket] = true
			*newBuckets = append(*newBuckets, bucket)
		}
		return true, nil
	}

	// A bucket change may point at a load that only exists ERP-side. It is
	// created implicitly and reported as newly seen, exactly like a bucket
	// first seen on an inserted row, so the session spawn covers it too.
	if bucketChanged && (knownBuckets == nil || !knownBuckets[bucket]) {
		if _, err := s.registry.Create(ctx, scope, bucket, "created by reconciliation", "reconciliation"); err != nil {
			// Another path may have created it between the listing and now.
			if apperr.KindOf(err) != apperr.KindConflict {
				return false, err
			}
		}
		if knownBuckets != nil {
			knownBuckets[bucket] = true
			*newBuckets = append(*newBuckets, bucket)
		}
	}

	err := s.db.WithContext(ctx).
		Model(&inventorymodels.InventoryRecord{}).
		Where("id = ?", record.ID).
		Updates(updates).Error
	if err != nil {
		return false, err
	}

	deltaJSON, _ := json.Marshal(delta)
	s.writeChange(ctx, models.ChangeEntry{
		ID:        uuid.NewString(),
		Warehouse: scope.Warehouse,
		RunID:     runID,
		Category:  scope.Category,
		ItemID:    record.ID,
		Kind:      models.ChangeUpdatedItem,
		Delta:     string(deltaJSON),
	})
	s.publish(ctx, events.OpUpdated, scope, record.ID)
	return true, nil
}

func (s *Service) raiseConflict(ctx context.Context, scope inventorymodels.Scope, runID string, row SnapshotRow, field string, candidates []inventorymodels.InventoryRecord, dryRun bool) error {
	if dryRun {
		return nil
	}

	code := row.Serial
	if field == "cso" {
		code = row.CSO
	}

	// One open conflict per code is enough; re-running an unchanged
	// snapshot must not pile up duplicates.
	var existing int64
	err := s.db.WithContext(ctx).
		Model(&models.Conflict{}).
		Where("warehouse = ? AND category = ? AND code = ? AND status = ?",
			scope.Warehouse, scope.Category, code, models.ConflictOpen).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	idsJSON, _ := json.Marshal(ids)
	incomingJSON, _ := json.Marshal(row)

	conflict := models.Conflict{
		ID:           uuid.NewString(),
		Warehouse:    scope.Warehouse,
		RunID:        runID,
		Category:     scope.Category,
		Code:         code,
		MatchedField: field,
		CandidateIDs: string(idsJSON),
		Incoming:     string(incomingJSON),
		Status:       models.ConflictOpen,
	}
	return s.db.WithContext(ctx).Create(&conflict).Error
}

func (s *Service) writeChange(ctx context.Context, entry models.ChangeEntry) {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn("Change entry write failed",
			zap.String("item_id", entry.ItemID),
			zap.Error(err))
	}
}

// ListChanges returns the change entries of a run, or of every run when
// runID is empty, newest first.
func (s *Service) ListChanges(ctx context.Context, scope inventorymodels.Scope, runID string) ([]models.ChangeEntry, error) {
	query := s.db.WithContext(ctx).Where("warehouse = ?", scope.Warehouse)
	if runID != "" {
		query = query.Where("run_id = ?", runID)
	}
	var entries []models.ChangeEntry
	if err := query.Order("created_at DESC, id").Find(&entries).Error; err != nil {
		return nil, apperr.Transient("change listing failed", err)
	}
	return entries, nil
}

// ListConflicts returns conflicts, optionally filtered by status, newest
// first.
func (s *Service) ListConflicts(ctx context.Context, scope inventorymodels.Scope, status models.ConflictStatus) ([]models.Conflict, error) {
	query := s.db.WithContext(ctx).Where("warehouse = ?", scope.Warehouse)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var conflicts []models.Conflict
	if err := query.Order("created_at DESC, id").Find(&conflicts).Error; err != nil {
		return nil, apperr.Transient("conflict listing failed", err)
	}
	return conflicts, nil
}

// ResolveConflict applies a conflict's incoming row to the record the
// operator chose and closes the conflict. keepItemID must be one of the
// conflict's candidates.
func (s *Service) ResolveConflict(ctx context.Context, scope inventorymodels.Scope, conflictID, keepItemID, actor string) error {
	var conflict models.Conflict
	err := s.db.WithContext(ctx).
		Where("id = ? AND warehouse = ?", conflictID, scope.Warehouse).
		First(&conflict).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("CONFLICT_NOT_FOUND", fmt.Sprintf("no conflict %q", conflictID))
	}
	if err != nil {
		return apperr.Transient("conflict lookup failed", err)
	}
	if conflict.Status != models.ConflictOpen {
		return apperr.InvalidTransition("ALREADY_RESOLVED",
			fmt.Sprintf("conflict %q is already resolved", conflictID))
	}

	var candidateIDs []string
	if err := json.Unmarshal([]byte(conflict.CandidateIDs), &candidateIDs); err != nil {
		return apperr.Internal("conflict candidates are unreadable", err)
	}
	valid := false
	for _, id := range candidateIDs {
		if id == keepItemID {
			valid = true
			break
		}
	}
	if !valid {
		return apperr.Validation("NOT_A_CANDIDATE",
			fmt.Sprintf("record %q is not a candidate of conflict %q", keepItemID, conflictID))
	}

	var row SnapshotRow
	if err := json.Unmarshal([]byte(conflict.Incoming), &row); err != nil {
		return apperr.Internal("conflict snapshot row is unreadable", err)
	}
	var record inventorymodels.InventoryRecord
	err = s.db.WithContext(ctx).
		Where("id = ? AND warehouse = ?", keepItemID, scope.Warehouse).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("RECORD_NOT_FOUND", fmt.Sprintf("no record %q", keepItemID))
	}
	if err != nil {
		return apperr.Transient("record lookup failed", err)
	}

	recordScope := inventorymodels.Scope{Warehouse: scope.Warehouse, Category: record.Category}
	if _, err := s.updateRow(ctx, recordScope, conflict.RunID, record, row, nil, nil, false); err != nil {
		return apperr.Transient("resolution update failed", err)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).
		Model(&models.Conflict{}).
		Where("id = ?", conflict.ID).
		Updates(map[string]any{
			"status":      models.ConflictResolved,
			"resolved_by": actor,
			"resolved_at": now,
		}).Error
	if err != nil {
		return apperr.Transient("conflict close failed", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, op events.Op, scope inventorymodels.Scope, rowID string) {
	ev := events.ChangeEvent{
		Table:     inventorymodels.InventoryRecord{}.TableName(),
		Op:        op,
		Warehouse: scope.Warehouse,
		Category:  string(scope.Category),
		RowID:     rowID,
		At:        time.Now(),
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Change event publish failed",
			zap.String("table", ev.Table),
			zap.String("row_id", ev.RowID),
			zap.Error(err))
	}
}
