package cmd

import (
	"fmt"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/logger"
	"inventory-sync/core/storage"
	"inventory-sync/feature/inventory"
	"inventory-sync/feature/inventory/models"
	"inventory-sync/feature/inventory/source"

	"go.uber.org/zap"
)

// setup loads configuration, builds the logger, and wires the inventory
// service from it. Shared by the diff and sync commands.
func setup() (*config.Config, *zap.Logger, *inventory.Service, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := buildService(cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, l, svc, nil
}

// buildService wires the inventory service from configuration: destination
// database always, object storage only when the source backend or audit
// needs it.
func buildService(cfg *config.Config, l *zap.Logger) (*inventory.Service, error) {
	registry, err := models.NewRegistry()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dest, err := source.NewDatabase(db, registry, l)
	if err != nil {
		return nil, err
	}

	var snapshots *source.SnapshotStore
	if cfg.Sync.SourceBackend == "snapshot" || cfg.Sync.AuditEnabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		snapshots = source.NewSnapshotStore(client, cfg.Storage.Bucket, l)
	}

	return inventory.NewService(registry, dest, snapshots, cfg.Sync, l), nil
}
