package reconcile_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/database"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/core/lock"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	loadmodels "github.com/whaleen/warehouse-sub004/feature/loads/models"
	"github.com/whaleen/warehouse-sub004/feature/reconcile"
	"github.com/whaleen/warehouse-sub004/feature/reconcile/models"
	"github.com/whaleen/warehouse-sub004/feature/sessions"
	sessionmodels "github.com/whaleen/warehouse-sub004/feature/sessions/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var salvageScope = inventorymodels.Scope{Warehouse: "main", Category: inventorymodels.CategorySalvage}

// stubSource serves a fixed row slice, standing in for the export fetch.
type stubSource struct {
	rows []reconcile.SnapshotRow
	err  error
}

func (s *stubSource) Fetch(ctx context.Context, category inventorymodels.Category) ([]reconcile.SnapshotRow, error) {
	return s.rows, s.err
}

type fixture struct {
	db       *gorm.DB
	svc      *reconcile.Service
	source   *stubSource
	locker   *lock.Memory
	registry *loads.Service
	sessions *sessions.Service
}

func setup(t *testing.T, dbName string) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&inventorymodels.InventoryRecord{},
		&loadmodels.Load{},
		&sessionmodels.ScanningSession{},
		&sessionmodels.SessionScan{},
		&models.ChangeEntry{},
		&models.Conflict{},
	))

	registry := loads.NewService(db, zap.NewNop(), events.Nop{})
	sessionSvc := sessions.NewService(db, zap.NewNop(), events.Nop{}, registry)
	source := &stubSource{}
	locker := lock.NewMemory()
	return &fixture{
		db:       db,
		svc:      reconcile.NewService(db, zap.NewNop(), events.Nop{}, locker, source, registry, sessionSvc),
		source:   source,
		locker:   locker,
		registry: registry,
		sessions: sessionSvc,
	}
}

func (f *fixture) seedRecord(t *testing.T, serial, cso, model string) inventorymodels.InventoryRecord {
	t.Helper()
	rec := inventorymodels.InventoryRecord{
		ID:        uuid.NewString(),
		Warehouse: "main",
		Category:  inventorymodels.CategorySalvage,
		Serial:    serial,
		CSO:       cso,
		Model:     model,
	}
	require.NoError(t, f.db.Create(&rec).Error)
	return rec
}

func TestRun_InsertsAndSpawns(t *testing.T) {
	f := setup(t, "reconcile_insert")
	ctx := context.Background()

	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", Model: "M1", Bucket: "TRUCK-1"},
		{Serial: "S2", Model: "M1", Bucket: "TRUCK-1"},
		{Serial: "S3", Model: "M2"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Inserted)
	assert.Equal(t, 0, outcome.Updated)
	assert.Equal(t, 0, outcome.Conflicts)
	assert.Empty(t, outcome.Failed)

	// The bucket became a real load, implicitly.
	load, err := f.registry.Get(ctx, salvageScope, "TRUCK-1")
	require.NoError(t, err)
	assert.Equal(t, "reconciliation", load.CreatedBy)

	// And got a draft session spawned over it.
	assert.Equal(t, 1, outcome.Spawned)
	spawned, err := f.sessions.List(ctx, salvageScope, sessionmodels.StatusDraft)
	require.NoError(t, err)
	require.Len(t, spawned, 1)
	assert.Equal(t, sessionmodels.SourceExternalSync, spawned[0].Source)

	// One new_item entry per insert.
	changes, err := f.svc.ListChanges(ctx, salvageScope, outcome.RunID)
	require.NoError(t, err)
	assert.Len(t, changes, 3)
	for _, ch := range changes {
		assert.Equal(t, models.ChangeNewItem, ch.Kind)
	}
}

func TestRun_UpdateIntoNewBucketSpawns(t *testing.T) {
	f := setup(t, "reconcile_update_bucket")
	ctx := context.Background()

	// The record exists but has never been assigned to a load; the snapshot
	// moves it into a bucket the registry has never seen.
	f.seedRecord(t, "S1", "", "M1")
	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", Bucket: "TRUCK-NEW"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Updated)
	assert.Equal(t, 0, outcome.Inserted)

	// The bucket became a load just like on the insert path...
	load, err := f.registry.Get(ctx, salvageScope, "TRUCK-NEW")
	require.NoError(t, err)
	assert.Equal(t, "reconciliation", load.CreatedBy)

	// ...and is handed to the session spawn with the rest of the new pairs.
	assert.Equal(t, 1, outcome.Spawned)
	spawned, err := f.sessions.List(ctx, salvageScope, sessionmodels.StatusDraft)
	require.NoError(t, err)
	require.Len(t, spawned, 1)
	require.NotNil(t, spawned[0].Bucket)
	assert.Equal(t, "TRUCK-NEW", *spawned[0].Bucket)

	// Moving a record into an already-registered bucket spawns nothing new.
	f.seedRecord(t, "S2", "", "M1")
	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S2", Bucket: "TRUCK-NEW"},
	}
	again, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Updated)
	assert.Equal(t, 0, again.Spawned)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	f := setup(t, "reconcile_idempotent")
	ctx := context.Background()

	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", Model: "M1", Bucket: "TRUCK-1"},
		{Serial: "S2", Model: "M2"},
	}

	first, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 2, second.Unchanged)

	changes, err := f.svc.ListChanges(ctx, salvageScope, second.RunID)
	require.NoError(t, err)
	assert.Empty(t, changes)

	var total int64
	require.NoError(t, f.db.Model(&inventorymodels.InventoryRecord{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)
}

func TestRun_DuplicateRowsInOneSnapshot(t *testing.T) {
	f := setup(t, "reconcile_dup_rows")
	ctx := context.Background()

	// The export sometimes repeats a row. The second occurrence must match
	// the record the first one just created, not insert again.
	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", Model: "M1"},
		{Serial: "S1", Model: "M1"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted)
	assert.Equal(t, 1, outcome.Unchanged)
}

func TestRun_UpdatesWithDelta(t *testing.T) {
	f := setup(t, "reconcile_update")
	ctx := context.Background()

	rec := f.seedRecord(t, "S1", "CSO-1", "OLD-MODEL")
	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", CSO: "CSO-1", Model: "NEW-MODEL"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Updated)
	assert.Equal(t, 0, outcome.Inserted)

	var got inventorymodels.InventoryRecord
	require.NoError(t, f.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, "NEW-MODEL", got.Model)

	changes, err := f.svc.ListChanges(ctx, salvageScope, outcome.RunID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeUpdatedItem, changes[0].Kind)

	var delta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(changes[0].Delta), &delta))
	assert.Equal(t, "OLD-MODEL", delta["model"]["from"])
	assert.Equal(t, "NEW-MODEL", delta["model"]["to"])
}

func TestRun_EmptySnapshotFieldsDoNotClobber(t *testing.T) {
	f := setup(t, "reconcile_no_clobber")
	ctx := context.Background()

	rec := f.seedRecord(t, "S1", "CSO-1", "M1")
	f.source.rows = []reconcile.SnapshotRow{{Serial: "S1"}}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Unchanged)

	var got inventorymodels.InventoryRecord
	require.NoError(t, f.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, "CSO-1", got.CSO)
	assert.Equal(t, "M1", got.Model)
}

func TestRun_AmbiguousMatchRaisesConflict(t *testing.T) {
	f := setup(t, "reconcile_conflict")
	ctx := context.Background()

	// Two internal records share CSO-9 with different serials; the snapshot
	// row only carries the grouping code.
	a := f.seedRecord(t, "S1", "CSO-9", "M1")
	b := f.seedRecord(t, "S2", "CSO-9", "M1")
	f.source.rows = []reconcile.SnapshotRow{
		{CSO: "CSO-9", Model: "M2"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Conflicts)
	assert.Equal(t, 0, outcome.Inserted)
	assert.Equal(t, 0, outcome.Updated)

	conflicts, err := f.svc.ListConflicts(ctx, salvageScope, models.ConflictOpen)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "CSO-9", conflicts[0].Code)
	assert.Equal(t, "cso", conflicts[0].MatchedField)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(conflicts[0].CandidateIDs), &ids))
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	// Neither candidate was touched.
	for _, id := range []string{a.ID, b.ID} {
		var got inventorymodels.InventoryRecord
		require.NoError(t, f.db.First(&got, "id = ?", id).Error)
		assert.Equal(t, "M1", got.Model)
	}

	// Re-running does not pile up a second open conflict for the same code.
	again, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Conflicts)
	conflicts, err = f.svc.ListConflicts(ctx, salvageScope, models.ConflictOpen)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestRun_AbsentRecordsAreNotDeleted(t *testing.T) {
	f := setup(t, "reconcile_no_delete")
	ctx := context.Background()

	kept := f.seedRecord(t, "S-LOCAL", "", "M1")
	f.source.rows = []reconcile.SnapshotRow{{Serial: "S-NEW"}}

	_, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)

	// The snapshot may be partial; records it does not mention stay.
	var got inventorymodels.InventoryRecord
	assert.NoError(t, f.db.First(&got, "id = ?", kept.ID).Error)
}

func TestRun_SerializedPerCategory(t *testing.T) {
	f := setup(t, "reconcile_lock")
	ctx := context.Background()

	release, err := f.locker.Acquire(ctx, "reconcile:main:salvage", time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Run(ctx, salvageScope, "sync", false)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// A different category is not serialized against this one.
	f.source.rows = nil
	_, err = f.svc.Run(ctx, inventorymodels.Scope{
		Warehouse: "main", Category: inventorymodels.CategoryFinishedGoods,
	}, "sync", false)
	assert.NoError(t, err)
}

func TestRun_DryRun(t *testing.T) {
	f := setup(t, "reconcile_dry")
	ctx := context.Background()

	f.source.rows = []reconcile.SnapshotRow{
		{Serial: "S1", Bucket: "TRUCK-1"},
	}

	outcome, err := f.svc.Run(ctx, salvageScope, "sync", true)
	require.NoError(t, err)
	assert.True(t, outcome.DryRun)
	assert.Equal(t, 1, outcome.Inserted)

	// Nothing was written.
	var total int64
	require.NoError(t, f.db.Model(&inventorymodels.InventoryRecord{}).Count(&total).Error)
	assert.EqualValues(t, 0, total)
	exists, err := f.registry.Exists(ctx, salvageScope, "TRUCK-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResolveConflict(t *testing.T) {
	f := setup(t, "reconcile_resolve")
	ctx := context.Background()

	a := f.seedRecord(t, "S1", "CSO-9", "M1")
	b := f.seedRecord(t, "S2", "CSO-9", "M1")
	f.source.rows = []reconcile.SnapshotRow{{CSO: "CSO-9", Model: "M2"}}

	_, err := f.svc.Run(ctx, salvageScope, "sync", false)
	require.NoError(t, err)
	conflicts, err := f.svc.ListConflicts(ctx, salvageScope, models.ConflictOpen)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	conflictID := conflicts[0].ID

	scope := inventorymodels.Scope{Warehouse: "main"}

	// Only a listed candidate may be chosen.
	err = f.svc.ResolveConflict(ctx, scope, conflictID, "someone-else", "alice")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, f.svc.ResolveConflict(ctx, scope, conflictID, a.ID, "alice"))

	// The chosen record got the incoming row; the other did not.
	var got inventorymodels.InventoryRecord
	require.NoError(t, f.db.First(&got, "id = ?", a.ID).Error)
	assert.Equal(t, "M2", got.Model)
	// A fresh destination: First would otherwise add got's already-populated
	// primary key to the WHERE clause alongside b.ID.
	var gotB inventorymodels.InventoryRecord
	require.NoError(t, f.db.First(&gotB, "id = ?", b.ID).Error)
	assert.Equal(t, "M1", gotB.Model)

	resolved, err := f.svc.ListConflicts(ctx, salvageScope, models.ConflictResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "alice", resolved[0].ResolvedBy)
	assert.NotNil(t, resolved[0].ResolvedAt)

	// Resolving twice is a state machine violation.
	err = f.svc.ResolveConflict(ctx, scope, conflictID, a.ID, "alice")
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestRun_SnapshotFetchFailure(t *testing.T) {
	f := setup(t, "reconcile_fetch_err")
	ctx := context.Background()

	f.source.err = fmt.Errorf("export endpoint unreachable")
	_, err := f.svc.Run(ctx, salvageScope, "sync", false)
	assert.Equal(t, apperr.KindTransient, apperr.KindOf(err))
}
