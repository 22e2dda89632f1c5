package loads

import (
	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/logger"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for loads.
type Handler struct {
	service   *Service
	warehouse string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, warehouse string) *Handler {
	return &Handler{service: service, warehouse: warehouse}
}

// RegisterRoutes registers the load routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/loads")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Post("/rename", h.HandleRename)
	group.Post("/merge", h.HandleMerge)
	group.Patch("/status", h.HandleSetStatus)
	group.Patch("/meta", h.HandleUpdateMetadata)
	group.Delete("/", h.HandleDelete)
}

func (h *Handler) scope(category string) inventorymodels.Scope {
	return inventorymodels.Scope{
		Warehouse: h.warehouse,
		Category:  inventorymodels.Category(category),
	}
}

type createLoadRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	Actor    string `json:"actor"`
}

// HandleCreate registers a new load.
// @Summary Create load
// @Tags loads
// @Accept json
// @Produce json
// @Param request body createLoadRequest true "Load definition"
// @Success 200 {object} models.Load
// @Failure 409 {object} map[string]any "Duplicate name"
// @Router /loads [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req createLoadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	load, err := h.service.Create(c.Context(), h.scope(req.Category), req.Name, req.Notes, req.Actor)
	if err != nil {
		l.Error("Load creation failed", zap.String("name", req.Name), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(load)
}

// HandleList returns loads in a category with live item counts.
// @Summary List loads
// @Tags loads
// @Produce json
// @Param category query string true "Category"
// @Param status query string false "Status filter"
// @Success 200 {array} models.LoadWithCount
// @Router /loads [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.List(c.Context(), h.scope(c.Query("category")), models.Status(c.Query("status")))
	if err != nil {
		l.Error("Load listing failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(result)
}

type renameRequest struct {
	Category string `json:"category"`
	OldName  string `json:"old_name"`
	NewName  string `json:"new_name"`
}

// HandleRename renames a load and repoints its records.
// @Summary Rename load
// @Tags loads
// @Accept json
// @Produce json
// @Param request body renameRequest true "Rename parameters"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any "New name already exists"
// @Router /loads/rename [post]
func (h *Handler) HandleRename(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	if err := h.service.Rename(c.Context(), h.scope(req.Category), req.OldName, req.NewName); err != nil {
		l.Error("Load rename failed", zap.String("old", req.OldName), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"renamed": true})
}

type mergeRequest struct {
	Category              string   `json:"category"`
	SourceNames           []string `json:"source_names"`
	TargetName            string   `json:"target_name"`
	CreateTargetIfMissing bool     `json:"create_target_if_missing"`
	Actor                 string   `json:"actor"`
}

// HandleMerge merges source loads into a target.
// @Summary Merge loads
// @Tags loads
// @Accept json
// @Produce json
// @Param request body mergeRequest true "Merge parameters"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any "Target missing"
// @Router /loads/merge [post]
func (h *Handler) HandleMerge(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req mergeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	err := h.service.Merge(c.Context(), h.scope(req.Category), req.SourceNames, req.TargetName, req.CreateTargetIfMissing, req.Actor)
	if err != nil {
		l.Error("Load merge failed", zap.String("target", req.TargetName), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"merged": true})
}

type setStatusRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// HandleSetStatus advances a load's status.
// @Summary Set load status
// @Tags loads
// @Accept json
// @Produce json
// @Param request body setStatusRequest true "Status change"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any "Backward transition"
// @Router /loads/status [patch]
func (h *Handler) HandleSetStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req setStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	if err := h.service.SetStatus(c.Context(), h.scope(req.Category), req.Name, models.Status(req.Status)); err != nil {
		l.Error("Load status change failed", zap.String("name", req.Name), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

type metadataRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
}

// HandleUpdateMetadata replaces a load's notes.
// @Summary Update load metadata
// @Tags loads
// @Accept json
// @Produce json
// @Param request body metadataRequest true "Metadata"
// @Success 200 {object} map[string]any
// @Router /loads/meta [patch]
func (h *Handler) HandleUpdateMetadata(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req metadataRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	if err := h.service.UpdateMetadata(c.Context(), h.scope(req.Category), req.Name, req.Notes); err != nil {
		l.Error("Load metadata update failed", zap.String("name", req.Name), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

type deleteRequest struct {
	Category   string `json:"category"`
	Name       string `json:"name"`
	ClearItems bool   `json:"clear_items"`
}

// HandleDelete removes a load, optionally detaching its records first.
// @Summary Delete load
// @Tags loads
// @Accept json
// @Produce json
// @Param request body deleteRequest true "Delete parameters"
// @Success 200 {object} map[string]any
// @Router /loads [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	if err := h.service.Delete(c.Context(), h.scope(req.Category), req.Name, req.ClearItems); err != nil {
		l.Error("Load delete failed", zap.String("name", req.Name), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
