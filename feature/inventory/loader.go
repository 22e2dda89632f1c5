package inventory

import (
	"github.com/whaleen/warehouse-sub004/core/events"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the inventory feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, bus events.Publisher, warehouse string) *Feature {
	svc := NewService(db, logger, bus)
	h := NewHandler(svc, warehouse)
	return &Feature{service: svc, handler: h}
}

// Service exposes the underlying service for other features.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "inventory"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
