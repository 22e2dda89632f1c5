package inventory_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/whaleen/warehouse-sub004/core/database"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/feature/inventory"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupApp(t *testing.T, dbName string) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InventoryRecord{}))

	app := fiber.New()
	feature := inventory.NewFeature(db, zap.NewNop(), events.Nop{}, "main")
	require.NoError(t, feature.Load(app))
	return app, db
}

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleResolve(t *testing.T) {
	app, db := setupApp(t, "inventory_handler_resolve")

	rec := models.InventoryRecord{
		ID:        uuid.NewString(),
		Warehouse: "main",
		Category:  models.CategorySalvage,
		Serial:    "S1",
	}
	require.NoError(t, db.Create(&rec).Error)

	resp, err := app.Test(postJSON(t, "/inventory/resolve", map[string]string{"code": "S1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result inventory.MatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, inventory.MatchUnique, result.Outcome)
	assert.Equal(t, inventory.FieldSerial, result.MatchedField)

	// Unknown codes are a not_found outcome, not an HTTP error.
	resp, err = app.Test(postJSON(t, "/inventory/resolve", map[string]string{"code": "NOPE"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, inventory.MatchNotFound, result.Outcome)

	// A bogus category filter maps to 400.
	resp, err = app.Test(postJSON(t, "/inventory/resolve", map[string]string{"code": "S1", "category": "bogus"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleScan_StatusMapping(t *testing.T) {
	app, db := setupApp(t, "inventory_handler_scan")

	rec := models.InventoryRecord{
		ID:        uuid.NewString(),
		Warehouse: "main",
		Category:  models.CategorySalvage,
		Serial:    "S1",
	}
	require.NoError(t, db.Create(&rec).Error)

	resp, err := app.Test(postJSON(t, "/inventory/"+rec.ID+"/scan", map[string]string{"actor": "alice"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown record maps to 404 with the tagged error envelope.
	resp, err = app.Test(postJSON(t, "/inventory/"+uuid.NewString()+"/scan", map[string]string{"actor": "alice"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "not_found", payload.Error.Kind)
}
