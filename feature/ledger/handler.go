package ledger

import (
	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/logger"
	"github.com/whaleen/warehouse-sub004/feature/inventory/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the conversion ledger.
type Handler struct {
	service   *Service
	warehouse string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, warehouse string) *Handler {
	return &Handler{service: service, warehouse: warehouse}
}

// RegisterRoutes registers the conversion routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/conversions")
	group.Post("/", h.HandleRecordConversion)
	group.Get("/:itemId", h.HandleHistory)
}

type conversionRequest struct {
	ItemIDs    []string `json:"item_ids"`
	ToCategory string   `json:"to_category"`
	// ToBucket absent means leave the bucket alone; present and empty
	// means detach; present and non-empty means reassign.
	ToBucket *string `json:"to_bucket"`
	Notes    string  `json:"notes"`
	Actor    string  `json:"actor"`
}

// HandleRecordConversion reclassifies records and writes their history.
// @Summary Convert records to another category
// @Description Writes one immutable ledger entry per item, then applies the mutation.
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body conversionRequest true "Items, target category, optional bucket"
// @Success 200 {object} ConversionResult
// @Success 207 {object} ConversionResult "Some items failed"
// @Failure 400 {object} map[string]any "Invalid category or bucket pairing"
// @Router /conversions [post]
func (h *Handler) HandleRecordConversion(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req conversionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, apperr.Validation("BAD_BODY", "invalid request body"))
	}

	bucket := BucketUnchanged()
	if req.ToBucket != nil {
		if *req.ToBucket == "" {
			bucket = BucketCleared()
		} else {
			bucket = BucketTo(*req.ToBucket)
		}
	}

	scope := models.Scope{Warehouse: h.warehouse}
	result, err := h.service.RecordConversion(c.Context(), scope, req.ItemIDs,
		models.Category(req.ToCategory), bucket, req.Notes, req.Actor)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindPartial {
			l.Warn("Conversion partially failed", zap.Int("failed", len(result.Failed)))
			return c.Status(fiber.StatusMultiStatus).JSON(result)
		}
		l.Error("Conversion failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(result)
}

// HandleHistory returns the conversion history of one record.
// @Summary Conversion history for a record
// @Tags conversions
// @Produce json
// @Param itemId path string true "Record ID"
// @Success 200 {array} models.ConversionEntry
// @Router /conversions/{itemId} [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scope := models.Scope{Warehouse: h.warehouse}
	entries, err := h.service.History(c.Context(), scope, c.Params("itemId"))
	if err != nil {
		l.Error("History lookup failed", zap.Error(err))
		return apperr.Respond(c, err)
	}
	return c.JSON(entries)
}
