package sessions

import (
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/feature/loads"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the sessions feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, bus events.Publisher, registry *loads.Service, warehouse string) *Feature {
	svc := NewService(db, logger, bus, registry)
	h := NewHandler(svc, warehouse)
	return &Feature{service: svc, handler: h}
}

// Service exposes the session manager for other features.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sessions"
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
