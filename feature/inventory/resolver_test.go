package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/whaleen/warehouse-sub004/core/database"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/feature/inventory"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB creates an isolated in-memory database.
func setupTestDB(t *testing.T, dbName string) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, serial, cso, model string, scanned bool) models.InventoryRecord {
	t.Helper()
	rec := models.InventoryRecord{
		ID:        uuid.NewString(),
		Warehouse: "main",
		Category:  models.CategorySalvage,
		Serial:    serial,
		CSO:       cso,
		Model:     model,
		Scanned:   scanned,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	return rec
}

func TestResolve_EmptyCode(t *testing.T) {
	db := setupTestDB(t, "resolve_empty")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	scope := models.Scope{Warehouse: "main"}
	result, err := svc.Resolve(context.Background(), scope, "   ")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchNotFound, result.Outcome)
	assert.Empty(t, result.Items)
}

func TestResolve_SerialPrecedenceNeverFallsThrough(t *testing.T) {
	db := setupTestDB(t, "resolve_precedence")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	// Two records share serial "X9"; a third has a unique model "X9".
	// The serial level is non-empty, so the result is multiple serial
	// matches even though the model level would have been unique.
	seedRecord(t, db, "X9", "CSO-1", "M-A", false)
	seedRecord(t, db, "X9", "CSO-2", "M-B", false)
	seedRecord(t, db, "S-other", "CSO-3", "X9", false)

	result, err := svc.Resolve(context.Background(), models.Scope{Warehouse: "main"}, "X9")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchMultiple, result.Outcome)
	assert.Equal(t, inventory.FieldSerial, result.MatchedField)
	assert.Len(t, result.Items, 2)
}

func TestResolve_SharedModelExample(t *testing.T) {
	db := setupTestDB(t, "resolve_model")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	// Pool: serials S1, S2; both share model M1.
	seedRecord(t, db, "S1", "CSO-1", "M1", false)
	seedRecord(t, db, "S2", "CSO-2", "M1", false)

	scope := models.Scope{Warehouse: "main"}

	result, err := svc.Resolve(context.Background(), scope, "M1")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchMultiple, result.Outcome)
	assert.Equal(t, inventory.FieldModel, result.MatchedField)
	assert.Len(t, result.Items, 2)

	result, err = svc.Resolve(context.Background(), scope, "S1")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchUnique, result.Outcome)
	assert.Equal(t, inventory.FieldSerial, result.MatchedField)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, "S1", result.Items[0].Serial)
}

func TestResolve_CSOBeforeModel(t *testing.T) {
	db := setupTestDB(t, "resolve_cso")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	seedRecord(t, db, "S1", "SHARED", "SHARED", false)
	seedRecord(t, db, "S2", "CSO-2", "SHARED", false)

	result, err := svc.Resolve(context.Background(), models.Scope{Warehouse: "main"}, "SHARED")
	assert.NoError(t, err)
	// The cso level has one candidate; the model level's two are ignored.
	assert.Equal(t, inventory.MatchUnique, result.Outcome)
	assert.Equal(t, inventory.FieldCSO, result.MatchedField)
}

func TestResolve_UnknownCode(t *testing.T) {
	db := setupTestDB(t, "resolve_unknown")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	seedRecord(t, db, "S1", "CSO-1", "M1", false)

	result, err := svc.Resolve(context.Background(), models.Scope{Warehouse: "main"}, "nope")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchNotFound, result.Outcome)
}

func TestResolve_ExcludesScannedAndOtherWarehouses(t *testing.T) {
	db := setupTestDB(t, "resolve_pool")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	seedRecord(t, db, "S1", "", "", true) // already scanned
	other := models.InventoryRecord{
		ID: uuid.NewString(), Warehouse: "north-dock",
		Category: models.CategorySalvage, Serial: "S1",
	}
	assert.NoError(t, db.Create(&other).Error)

	result, err := svc.Resolve(context.Background(), models.Scope{Warehouse: "main"}, "S1")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchNotFound, result.Outcome)
}

func TestResolve_CategoryFilter(t *testing.T) {
	db := setupTestDB(t, "resolve_category")
	svc := inventory.NewService(db, zap.NewNop(), events.Nop{})

	seedRecord(t, db, "S1", "", "", false) // salvage
	fg := models.InventoryRecord{
		ID: uuid.NewString(), Warehouse: "main",
		Category: models.CategoryFinishedGoods, Serial: "S1",
	}
	assert.NoError(t, db.Create(&fg).Error)

	scope := models.Scope{Warehouse: "main", Category: models.CategoryFinishedGoods}
	result, err := svc.Resolve(context.Background(), scope, "S1")
	assert.NoError(t, err)
	assert.Equal(t, inventory.MatchUnique, result.Outcome)
	assert.Equal(t, models.CategoryFinishedGoods, result.Items[0].Category)

	// Unknown category is rejected before any lookup.
	_, err = svc.Resolve(context.Background(), models.Scope{Warehouse: "main", Category: "junk"}, "S1")
	assert.Error(t, err)
}
