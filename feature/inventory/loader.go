package inventory

import (
	"inventory-sync/core/config"
	"inventory-sync/core/schema"
	"inventory-sync/feature/inventory/source"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Inventory feature.
func NewFeature(registry *schema.Registry, database *source.Database, snapshots *source.SnapshotStore, cfg config.SyncConfig, logger *zap.Logger) *Feature {
	svc := NewService(registry, database, snapshots, cfg, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Feature wraps an already-wired service for registration with the feature
// loader.
func (s *Service) Feature() *Feature {
	return &Feature{service: s, handler: NewHandler(s)}
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
