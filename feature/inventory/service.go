package inventory

import (
	"context"
	"fmt"

	"inventory-sync/core/config"
	"inventory-sync/core/diff"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/schema"
	"inventory-sync/core/store"
	"inventory-sync/feature/inventory/source"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service orchestrates one reconciliation flow: load both sides, diff them,
// and optionally apply the diff to the destination database.
type Service struct {
	registry  *schema.Registry
	database  *source.Database
	snapshots *source.SnapshotStore
	cfg       config.SyncConfig
	logger    *zap.Logger
}

// NewService wires the inventory service. snapshots may be nil when the
// source backend is file and audit is disabled.
func NewService(registry *schema.Registry, database *source.Database, snapshots *source.SnapshotStore, cfg config.SyncConfig, logger *zap.Logger) *Service {
	return &Service{
		registry:  registry,
		database:  database,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
	}
}

// LoadStores loads the source of truth and the destination database
// concurrently.
func (s *Service) LoadStores(ctx context.Context) (*store.Store, *store.Store, error) {
	var src, dst *store.Store

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src, err = s.loadSource(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		dst, err = s.database.Load(ctx, "database")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return src, dst, nil
}

func (s *Service) loadSource(ctx context.Context) (*store.Store, error) {
	switch s.cfg.SourceBackend {
	case "snapshot":
		if s.snapshots == nil {
			return nil, fmt.Errorf("snapshot source backend requires storage to be configured")
		}
		return s.snapshots.Load(ctx, s.registry, "snapshot", s.cfg.SourceObject)
	case "file", "":
		return source.LoadFile(s.registry, "file", s.cfg.SourcePath, s.logger)
	default:
		return nil, fmt.Errorf("unknown source backend %q", s.cfg.SourceBackend)
	}
}

// Diff loads both sides and computes the diff without touching the
// destination.
func (s *Service) Diff(ctx context.Context) (*diff.Diff, error) {
	src, dst, err := s.LoadStores(ctx)
	if err != nil {
		return nil, err
	}
	return diff.NewDiffer(s.registry, s.logger).Diff(src, dst)
}

// Sync loads both sides, computes the diff and applies it to the
// destination database. With dryRun set it stops after the diff and returns
// a nil summary.
func (s *Service) Sync(ctx context.Context, dryRun bool) (*diff.Diff, *reconcile.Summary, error) {
	src, dst, err := s.LoadStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	d, err := diff.NewDiffer(s.registry, s.logger).Diff(src, dst)
	if err != nil {
		return nil, nil, err
	}
	if dryRun {
		return d, nil, nil
	}

	executor := reconcile.NewExecutor(s.registry, s.database, s.logger)
	if s.cfg.AuditEnabled && s.snapshots != nil {
		executor.OnComplete = func(_ []*diff.Element, summary *reconcile.Summary) {
			s.writeAudit(ctx, d, summary.RunID)
		}
	}

	summary, err := executor.Apply(ctx, d, dst)
	if err != nil {
		return d, summary, err
	}

	// Persist child references so linkage changes from this run survive the
	// next database load.
	if err := s.database.SyncChildren(ctx, dst); err != nil {
		return d, summary, err
	}

	return d, summary, nil
}

// writeAudit uploads the serialized diff for later inspection. Audit is
// best effort: a failed upload is logged, never propagated into the run
// outcome.
func (s *Service) writeAudit(ctx context.Context, d *diff.Diff, runID string) {
	serialized, err := d.Serialize()
	if err != nil {
		s.logger.Warn("failed to serialize diff for audit", zap.Error(err))
		return
	}
	if err := s.snapshots.WriteAudit(ctx, s.cfg.AuditPrefix, runID, serialized); err != nil {
		s.logger.Warn("failed to upload audit diff", zap.String("run_id", runID), zap.Error(err))
	}
}
