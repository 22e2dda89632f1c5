package inventory

import (
	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/logger"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for inventory records.
type Handler struct {
	service   *Service
	warehouse string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, warehouse string) *Handler {
	return &Handler{service: service, warehouse: warehouse}
}

// RegisterRoutes registers the inventory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/inventory")
	group.Get("/", h.HandleList)
	group.Post("/resolve", h.HandleResolve)
	group.Post("/scan-bulk", h.HandleScanBulk)
	group.Post("/:id/scan", h.HandleScan)
	group.Patch("/:id/notes", h.HandleUpdateNotes)
}

type resolveRequest struct {
	Code     string `json:"code"`
	Category string `json:"category"`
}

// HandleResolve resolves a scanned code against the unscanned pool.
// @Summary Resolve a scanned code
// @Description Match a code against unscanned inventory with serial > cso > model precedence.
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body resolveRequest true "Code and optional category filter"
// @Success 200 {object} MatchResult "Match outcome"
// @Failure 400 {object} map[string]any "Invalid input"
// @Router /inventory/resolve [post]
func (h *Handler) HandleResolve(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := models.Scope{Warehouse: h.warehouse, Category: models.Category(req.Category)}
	result, err := h.service.Resolve(c.Context(), scope, req.Code)
	if err != nil {
		l.Error("Scan resolution failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(result)
}

type scanRequest struct {
	Actor string `json:"actor"`
}

// HandleScan marks a single record as scanned (idempotent).
// @Summary Mark record scanned
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body scanRequest true "Acting operator"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any "Unknown record"
// @Router /inventory/{id}/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req scanRequest
	_ = c.BodyParser(&req)

	scope := models.Scope{Warehouse: h.warehouse}
	if err := h.service.MarkScanned(c.Context(), scope, c.Params("id"), req.Actor); err != nil {
		l.Error("Mark scanned failed", zap.String("id", c.Params("id")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"scanned": true})
}

type scanBulkRequest struct {
	ItemIDs []string `json:"item_ids"`
	Actor   string   `json:"actor"`
}

// HandleScanBulk marks several records scanned, reporting both subsets.
// @Summary Mark records scanned in bulk
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body scanBulkRequest true "Record IDs and actor"
// @Success 200 {object} BulkResult
// @Success 207 {object} BulkResult "Some rows failed"
// @Router /inventory/scan-bulk [post]
func (h *Handler) HandleScanBulk(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req scanBulkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := models.Scope{Warehouse: h.warehouse}
	result, err := h.service.MarkScannedBulk(c.Context(), scope, req.ItemIDs, req.Actor)
	if err != nil {
		// Partial results still return the envelope with both subsets.
		if apperr.KindOf(err) == apperr.KindPartial {
			l.Warn("Bulk scan partially failed", zap.Int("failed", len(result.Failed)))
			return c.Status(fiber.StatusMultiStatus).JSON(result)
		}
		l.Error("Bulk scan failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(result)
}

// HandleList returns records matching equality filters.
// @Summary List inventory records
// @Tags inventory
// @Produce json
// @Param category query string false "Category filter"
// @Param bucket query string false "Load name filter (empty string matches unassigned)"
// @Param scanned query bool false "Scan state filter"
// @Success 200 {array} models.InventoryRecord
// @Router /inventory [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	filter := ListFilter{Category: models.Category(c.Query("category"))}
	if c.Request().URI().QueryArgs().Has("bucket") {
		filter.Bucket = c.Query("bucket")
		filter.BucketSet = true
	}
	if c.Request().URI().QueryArgs().Has("scanned") {
		scanned := c.QueryBool("scanned")
		filter.Scanned = &scanned
	}

	records, err := h.service.List(c.Context(), models.Scope{Warehouse: h.warehouse}, filter)
	if err != nil {
		l.Error("Record listing failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(records)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// HandleUpdateNotes replaces the notes on a record.
// @Summary Update record notes
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body notesRequest true "New notes"
// @Success 200 {object} map[string]any
// @Router /inventory/{id}/notes [patch]
func (h *Handler) HandleUpdateNotes(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := models.Scope{Warehouse: h.warehouse}
	if err := h.service.UpdateNotes(c.Context(), scope, c.Params("id"), req.Notes); err != nil {
		l.Error("Notes update failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}
