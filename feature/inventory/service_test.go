package inventory_test

import (
	"context"
	"testing"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/feature/inventory"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMarkScanned_Idempotent(t *testing.T) {
	db := setupTestDB(t, "scan_idempotent")
	bus := events.NewMemoryBus()
	svc := inventory.NewService(db, zap.NewNop(), bus)

	rec := seedRecord(t, db, "S1", "", "", false)
	scope := models.Scope{Warehouse: "main"}

	ch, cancel := bus.Subscribe(context.Background(), nil)
	defer cancel()

	assert.NoError(t, svc.MarkScanned(context.Background(), scope, rec.ID, "alice"))

	// Second scan is a no-op success, not an error.
	assert.NoError(t, svc.MarkScanned(context.Background(), scope, rec.ID, "bob"))

	got, err := svc.Get(context.Background(), scope, rec.ID)
	assert.NoError(t, err)
	assert.True(t, got.Scanned)
	assert.Equal(t, "alice", got.ScannedBy)
	assert.NotNil(t, got.ScannedAt)

	// Only the first call actually transitioned state, so only one event.
	assert.Len(t, ch, 1)
}

func TestMarkScanned_UnknownRecord(t *testing.T) {
	db := setupTestDB(t, "scan_unknown")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	err := svc.MarkScanned(context.Background(), models.Scope{Warehouse: "main"}, "missing-id", "alice")
	assert.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkScannedBulk_PartialFailure(t *testing.T) {
	db := setupTestDB(t, "scan_bulk")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	a := seedRecord(t, db, "S1", "", "", false)
	b := seedRecord(t, db, "S2", "", "", false)

	scope := models.Scope{Warehouse: "main"}
	result, err := svc.MarkScannedBulk(context.Background(), scope, []string{a.ID, "missing", b.ID}, "alice")

	// The envelope carries both subsets; the error tags the mix.
	assert.Error(t, err)
	assert.Equal(t, apperr.KindPartial, apperr.KindOf(err))
	assert.ElementsMatch(t, []string{a.ID, b.ID}, result.Succeeded)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].ItemID)
}

func TestList_Filters(t *testing.T) {
	db := setupTestDB(t, "list_filters")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	bucket := "LOAD-7"
	rec := seedRecord(t, db, "S1", "", "", false)
	assert.NoError(t, db.Model(&models.InventoryRecord{}).Where("id = ?", rec.ID).Update("bucket", bucket).Error)
	seedRecord(t, db, "S2", "", "", true)

	scope := models.Scope{Warehouse: "main"}

	inBucket, err := svc.List(context.Background(), scope, inventory.ListFilter{Bucket: bucket, BucketSet: true})
	assert.NoError(t, err)
	assert.Len(t, inBucket, 1)

	unassigned, err := svc.List(context.Background(), scope, inventory.ListFilter{Bucket: "", BucketSet: true})
	assert.NoError(t, err)
	assert.Len(t, unassigned, 1)
	assert.Equal(t, "S2", unassigned[0].Serial)

	scanned := true
	scannedOnly, err := svc.List(context.Background(), scope, inventory.ListFilter{Scanned: &scanned})
	assert.NoError(t, err)
	assert.Len(t, scannedOnly, 1)
}
