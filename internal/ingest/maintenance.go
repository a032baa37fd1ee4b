package ingest

import (
	"context"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/adapter"
	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

// Pruner is the optional maintenance pass removing administrator rows that
// hold neither ownership nor roles. The handlers never delete such rows, so
// this stays off by default and is not required for correctness.
type Pruner struct {
	store store.Store
	clock adapter.Clock
	cfg   config.MaintenanceConfig
	pool  pond.Pool
}

// NewPruner creates a pruner with its own worker pool
func NewPruner(s store.Store, clock adapter.Clock, cfg config.MaintenanceConfig) *Pruner {
	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Pruner{
		store: s,
		clock: clock,
		cfg:   cfg,
		pool:  pond.NewPool(poolSize),
	}
}

// Run prunes on the configured interval until the context is cancelled.
// Returns immediately when pruning is disabled.
func (p *Pruner) Run(ctx context.Context) {
	if !p.cfg.PruneAdministrators {
		logger.InfoCtx(ctx, "administrator pruning disabled")
		return
	}

	logger.InfoCtx(ctx, "administrator pruning enabled",
		zap.Duration("interval", p.cfg.PruneInterval),
		zap.Int("batchSize", p.cfg.PruneBatchSize))

	for {
		select {
		case <-ctx.Done():
			p.pool.StopAndWait()
			return
		case <-p.clock.After(p.cfg.PruneInterval):
			p.pool.Submit(func() {
				pruned, err := p.PruneOnce(ctx)
				if err != nil {
					logger.ErrorCtx(ctx, err)
					return
				}
				if pruned > 0 {
					logger.InfoCtx(ctx, "pruned inert administrators",
						zap.Int64("count", pruned))
				}
			})
		}
	}
}

// PruneOnce deletes a single batch of inert administrator rows
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	return p.store.PruneInertAdministrators(ctx, p.cfg.PruneBatchSize)
}
