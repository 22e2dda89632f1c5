package sessions

import (
	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/logger"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/sessions/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for scanning sessions.
type Handler struct {
	service   *Service
	warehouse string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, warehouse string) *Handler {
	return &Handler{service: service, warehouse: warehouse}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sessions")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Get("/:id", h.HandleGet)
	group.Post("/:id/scan", h.HandleScan)
	group.Patch("/:id/status", h.HandleSetStatus)
}

func (h *Handler) scope(category string) inventorymodels.Scope {
	return inventorymodels.Scope{Warehouse: h.warehouse, Category: inventorymodels.Category(category)}
}

type createSessionRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Bucket   *string `json:"bucket"`
	Status   string  `json:"status"`
	Actor    string  `json:"actor"`
}

// HandleCreate opens a new scanning session.
// @Summary Create a scanning session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Session scope"
// @Success 200 {object} models.ScanningSession
// @Failure 400 {object} map[string]any "Invalid category/bucket pairing"
// @Router /sessions [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	session, err := h.service.Create(c.Context(), h.scope(req.Category), req.Name,
		req.Bucket, models.Status(req.Status), models.SourceManual, req.Actor)
	if err != nil {
		l.Error("Session creation failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(session)
}

// HandleList lists sessions.
// @Summary List scanning sessions
// @Tags sessions
// @Produce json
// @Param category query string false "Category filter"
// @Param status query string false "Status filter"
// @Success 200 {array} models.ScanningSession
// @Router /sessions [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	sessions, err := h.service.List(c.Context(), h.scope(c.Query("category")),
		models.Status(c.Query("status")))
	if err != nil {
		l.Error("Session listing failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(sessions)
}

// HandleGet returns one session plus its progress.
// @Summary Get a session with progress
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /sessions/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	session, err := h.service.Get(c.Context(), scope, c.Params("id"))
	if err != nil {
		l.Error("Session lookup failed", zap.String("id", c.Params("id")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	progress, err := h.service.Progress(c.Context(), scope, session.ID)
	if err != nil {
		l.Error("Progress computation failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"session": session, "progress": progress})
}

type sessionScanRequest struct {
	ItemID string `json:"item_id"`
	Actor  string `json:"actor"`
}

// HandleScan records an item scan in a session.
// @Summary Record a scan in a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body sessionScanRequest true "Scanned item"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any "Session not active"
// @Router /sessions/{id}/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req sessionScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	if err := h.service.RecordScan(c.Context(), scope, c.Params("id"), req.ItemID, req.Actor); err != nil {
		l.Error("Session scan failed", zap.String("id", c.Params("id")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"recorded": true})
}

type sessionStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

// HandleSetStatus advances a session's lifecycle.
// @Summary Set session status
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body sessionStatusRequest true "Target status"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any "Backward transition or closed session"
// @Router /sessions/{id}/status [patch]
func (h *Handler) HandleSetStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req sessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	scope := inventorymodels.Scope{Warehouse: h.warehouse}
	if err := h.service.SetStatus(c.Context(), scope, c.Params("id"), models.Status(req.Status), req.Actor); err != nil {
		l.Error("Session status change failed", zap.String("id", c.Params("id")), zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}
