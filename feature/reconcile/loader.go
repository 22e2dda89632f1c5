package reconcile

import (
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/core/lock"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	"github.com/whaleen/warehouse-sub004/feature/sessions"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the reconcile feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, bus events.Publisher, locker lock.Locker, source SnapshotSource, registry *loads.Service, sessionSvc *sessions.Service, warehouse string) *Feature {
	svc := NewService(db, logger, bus, locker, source, registry, sessionSvc)
	h := NewHandler(svc, warehouse)
	return &Feature{service: svc, handler: h}
}

// Service exposes the reconciliation engine, e.g. to the CLI.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reconcile"
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
