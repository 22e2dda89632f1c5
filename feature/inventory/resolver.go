package inventory

import (
	"context"
	"strings"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"
)

// MatchOutcome tags the result of resolving a scanned code.
type MatchOutcome string

const (
	MatchUnique   MatchOutcome = "unique"
	MatchMultiple MatchOutcome = "multiple"
	MatchNotFound MatchOutcome = "not_found"
)

// Matched field names, in precedence order.
const (
	FieldSerial = "serial"
	FieldCSO    = "cso"
	FieldModel  = "model"
)

// MatchResult is the outcome of resolving one scanned code.
type MatchResult struct {
	Outcome      MatchOutcome             `json:"outcome"`
	MatchedField string                   `json:"matched_field,omitempty"`
	Items        []models.InventoryRecord `json:"items,omitempty"`
}

// Resolve matches a scanned code against the unscanned records in scope.
//
// The three identifying fields are evaluated independently with fixed
// precedence serial > cso > model. The first level with at least one
// candidate decides the result: one candidate is unique, more than one is
// multiple. The resolver never falls through a non-empty level, even when a
// lower level would have been unique, and never silently picks one of
// several serial matches. Resolution is read-only; marking a record scanned
// is a separate call.
func (s *Service) Resolve(ctx context.Context, scope models.Scope, code string) (*MatchResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		// Empty code resolves without touching the store.
		return &MatchResult{Outcome: MatchNotFound}, nil
	}
	if scope.Category != "" && !scope.Category.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", "unknown category: "+string(scope.Category))
	}

	// One round trip pulls all three candidate subsets; they are partitioned
	// in memory since a record can match on more than one field.
	q := s.db.WithContext(ctx).
		Where("warehouse = ? AND scanned = ?", scope.Warehouse, false).
		Where("serial = ? OR cso = ? OR model = ?", code, code, code)
	if scope.Category != "" {
		q = q.Where("category = ?", scope.Category)
	}

	var pool []models.InventoryRecord
	if err := q.Order("created_at, id").Find(&pool).Error; err != nil {
		return nil, apperr.Transient("failed to query candidate pool", err)
	}

	var bySerial, byCSO, byModel []models.InventoryRecord
	for _, rec := range pool {
		if rec.Serial == code {
			bySerial = append(bySerial, rec)
		}
		if rec.CSO == code {
			byCSO = append(byCSO, rec)
		}
		if rec.Model == code {
			byModel = append(byModel, rec)
		}
	}

	for _, level := range []struct {
		field string
		items []models.InventoryRecord
	}{
		{FieldSerial, bySerial},
		{FieldCSO, byCSO},
		{FieldModel, byModel},
	} {
		if len(level.items) == 0 {
			continue
		}
		outcome := MatchUnique
		if len(level.items) > 1 {
			outcome = MatchMultiple
		}
		return &MatchResult{
			Outcome:      outcome,
			MatchedField: level.field,
			Items:        level.items,
		}, nil
	}

	return &MatchResult{Outcome: MatchNotFound}, nil
}
