package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CatalogRefresher periodically re-collects the venue catalog so dashboard
// reads stay warm instead of paying the full collection on a cache miss.
type CatalogRefresher struct {
	logger   *zap.Logger
	catalog  CatalogRefreshing
	events   EventSink
	interval time.Duration
	stopCh   chan struct{}
}

// CatalogRefreshing triggers a full catalog re-collection.
type CatalogRefreshing interface {
	RefreshCatalog(ctx context.Context) (int, error)
}

// EventSink publishes refresh-completed events. May be nil.
type EventSink interface {
	PublishCatalogRefreshed(ctx context.Context, venueCount int) error
}

// NewCatalogRefresher constructs a background job that runs periodically.
func NewCatalogRefresher(logger *zap.Logger, catalog CatalogRefreshing, events EventSink, interval time.Duration) *CatalogRefresher {
	return &CatalogRefresher{
		logger:   logger,
		catalog:  catalog,
		events:   events,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one refresh immediately, then loops until stopped. Typically run
// with an interval just under the catalog TTL.
func (r *CatalogRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("catalog_refresher.started", zap.Duration("interval", r.interval))
	r.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("catalog_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("catalog_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the refresher.
func (r *CatalogRefresher) Stop() {
	close(r.stopCh)
}

// runOnce executes one refresh cycle.
func (r *CatalogRefresher) runOnce(ctx context.Context) {
	start := time.Now()
	r.logger.Info("catalog_refresher.running")

	count, err := r.catalog.RefreshCatalog(ctx)
	if err != nil {
		r.logger.Error("catalog_refresher.refresh_failed", zap.Error(err))
		return
	}

	if r.events != nil {
		if err := r.events.PublishCatalogRefreshed(ctx, count); err != nil {
			r.logger.Warn("catalog_refresher.nats_publish_failed", zap.Error(err))
		}
	}

	r.logger.Info("catalog_refresher.success",
		zap.Int("venues", count),
		zap.Duration("duration", time.Since(start)))
}
