package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/whaleen/warehouse-sub004/core/storage"
	"github.com/whaleen/warehouse-sub004/core/utils"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/minio/minio-go/v7"
)

// SnapshotRow is one row of an external ERP snapshot. It carries the
// identifying codes of an inventory record plus ERP-side status fields, and
// has no local identity until it is matched.
type SnapshotRow struct {
	Serial    string `json:"serial"`
	CSO       string `json:"cso"`
	Model     string `json:"model"`
	Bucket    string `json:"bucket"`
	ERPStatus string `json:"erp_status"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// SnapshotSource produces the ordered row sequence a reconciliation run
// consumes. How the rows were obtained is the source's business.
type SnapshotSource interface {
	Fetch(ctx context.Context, category inventorymodels.Category) ([]SnapshotRow, error)
}

// ObjectSource reads snapshots from export objects in object storage, one
// JSON array per category at <prefix>/<category>.json.
type ObjectSource struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectSource creates a snapshot source over the configured export
// bucket.
func NewObjectSource(client storage.Client, cfg storage.Config) *ObjectSource {
	return &ObjectSource{client: client, bucket: cfg.Bucket, prefix: cfg.ExportPrefix}
}

// Fetch downloads and decodes the export object for one category. The ERP
// export tooling is not consistent about value types (quantities arrive as
// strings or floats depending on the export run), so every field goes
// through coercion instead of strict decoding.
func (o *ObjectSource) Fetch(ctx context.Context, category inventorymodels.Category) ([]SnapshotRow, error) {
	objectName := fmt.Sprintf("%s/%s.json", strings.TrimSuffix(o.prefix, "/"), category)
	object, err := o.client.GetObject(ctx, o.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot %s: %w", objectName, err)
	}
	defer object.Close()

	var raw []map[string]any
	if err := json.NewDecoder(object).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", objectName, err)
	}

	rows := make([]SnapshotRow, 0, len(raw))
	for _, m := range raw {
		rows = append(rows, SnapshotRow{
			Serial:    strings.TrimSpace(utils.ToString(m["serial"])),
			CSO:       strings.TrimSpace(utils.ToString(m["cso"])),
			Model:     strings.TrimSpace(utils.ToString(m["model"])),
			Bucket:    strings.TrimSpace(utils.ToString(m["bucket"])),
			ERPStatus: utils.ToString(m["erp_status"]),
			Quantity:  utils.ToInt(m["quantity"]),
			Notes:     utils.ToString(m["notes"]),
		})
	}
	return rows, nil
}
