package reconcile_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/whaleen/warehouse-sub004/core/storage"
	"github.com/whaleen/warehouse-sub004/core/storage/mocks"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectSource_Fetch(t *testing.T) {
	// The export tooling is sloppy about types: quantities show up as
	// numbers or strings depending on the run, and fields go missing.
	body := `[
		{"serial": " S1 ", "cso": "CSO-1", "model": "M1", "bucket": "TRUCK-1", "quantity": 2},
		{"serial": "S2", "quantity": "3", "erp_status": "shipped"},
		{"model": "M2", "quantity": 1.0}
	]`

	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "erp-exports", "exports/salvage.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(body)), nil)

	source := reconcile.NewObjectSource(client, storage.Config{Bucket: "erp-exports", ExportPrefix: "exports"})
	rows, err := source.Fetch(context.Background(), inventorymodels.CategorySalvage)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "S1", rows[0].Serial)
	assert.Equal(t, "TRUCK-1", rows[0].Bucket)
	assert.Equal(t, 2, rows[0].Quantity)

	assert.Equal(t, 3, rows[1].Quantity)
	assert.Equal(t, "shipped", rows[1].ERPStatus)
	assert.Empty(t, rows[1].Model)

	assert.Equal(t, "M2", rows[2].Model)
	assert.Equal(t, 1, rows[2].Quantity)

	client.AssertExpectations(t)
}

func TestObjectSource_BadPayload(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "erp-exports", "exports/salvage.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader("not json")), nil)

	source := reconcile.NewObjectSource(client, storage.Config{Bucket: "erp-exports", ExportPrefix: "exports"})
	_, err := source.Fetch(context.Background(), inventorymodels.CategorySalvage)
	assert.Error(t, err)
}
