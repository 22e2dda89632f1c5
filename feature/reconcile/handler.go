package reconcile

import (
	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/logger"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/reconcile/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reconciliation runs.
type Handler struct {
	service   *Service
	warehouse string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, warehouse string) *Handler {
	return &Handler{service: service, warehouse: warehouse}
}

// RegisterRoutes registers the reconcile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconcile")
	group.Post("/:category/run", h.HandleRun)
	group.Get("/changes", h.HandleListChanges)
	group.Get("/conflicts", h.HandleListConflicts)
	group.Post("/conflicts/:id/resolve", h.HandleResolveConflict)
}

type runRequest struct {
	Actor  string `json:"actor"`
	DryRun bool   `json:"dry_run"`
}

// HandleRun executes one reconciliation run for a category.
// @Summary Run reconciliation for a category
// @Description Merges the ERP snapshot into the internal store. Runs per category are serialized.
// @Tags reconcile
// @Accept json
// @Produce json
// @Param category path string true "Category"
// @Param request body runRequest false "Actor and dry-run flag"
// @Success 200 {object} RunOutcome
// @Success 207 {object} RunOutcome "Some rows failed"
// @Failure 409 {object} map[string]any "A run is already in flight"
// @Router /reconcile/{category}/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req runRequest
	_ = c.BodyParser(&req)

	scope := inventorymodels.Scope{
		Warehouse: h.warehouse,
		Category:  inventorymodels.Category(c.Params("category")),
	}
	outcome, err := h.service.Run(c.Context(), scope, req.Actor, req.DryRun)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindPartial {
			l.Warn("Reconciliation run partially failed",
				zap.String("run_id", outcome.RunID),
				zap.Int("failed", len(outcome.Failed)))
			return c.Status(fiber.StatusMultiStatus).JSON(outcome)
		}
		l.Error("Reconciliation run failed", zap.String("category", c.Params("category")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(outcome)
}

// HandleListChanges lists change entries.
// @Summary List reconciliation change entries
// @Tags reconcile
// @Produce json
// @Param run_id query string false "Run filter"
// @Success 200 {array} models.ChangeEntry
// @Router /reconcile/changes [get]
func (h *Handler) HandleListChanges(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	entries, err := h.service.ListChanges(c.Context(), scope, c.Query("run_id"))
	if err != nil {
		l.Error("Change listing failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(entries)
}

// HandleListConflicts lists conflicts.
// @Summary List reconciliation conflicts
// @Tags reconcile
// @Produce json
// @Param status query string false "Status filter (open or resolved)"
// @Success 200 {array} models.Conflict
// @Router /reconcile/conflicts [get]
func (h *Handler) HandleListConflicts(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	conflicts, err := h.service.ListConflicts(c.Context(), scope, models.ConflictStatus(c.Query("status")))
	if err != nil {
		l.Error("Conflict listing failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(conflicts)
}

type resolveConflictRequest struct {
	KeepItemID string `json:"keep_item_id"`
	Actor      string `json:"actor"`
}

// HandleResolveConflict applies a conflict's incoming row to one candidate.
// @Summary Resolve a reconciliation conflict
// @Tags reconcile
// @Accept json
// @Produce json
// @Param id path string true "Conflict ID"
// @Param request body resolveConflictRequest true "Chosen candidate"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any "Conflict already resolved"
// @Router /reconcile/conflicts/{id}/resolve [post]
func (h *Handler) HandleResolveConflict(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req resolveConflictRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	if err := h.service.ResolveConflict(c.Context(), scope, c.Params("id"), req.KeepItemID, req.Actor); err != nil {
		l.Error("Conflict resolution failed", zap.String("id", c.Params("id")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"resolved": true})
}
