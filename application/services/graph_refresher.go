package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/events"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
	"github.com/engmung/portfolio-Nat/pkg/extensions"
)

// Snapshot is one immutable published graph. Readers hold on to a snapshot for as
// long as they need it; refreshes replace the pointer, never the contents.
type Snapshot struct {
	Graph   *aggregates.Graph
	Version *versioning.GraphVersion
	Dropped []domainservices.DroppedItem
}

// GraphRefresher fetches the listing, rebuilds the graph and publishes it atomically.
// Every refresh takes a generation token before fetching; a result is applied only if
// no newer refresh was issued in the meantime.
type GraphRefresher struct {
	source     ports.KnowledgeSource
	builder    *GraphBuilder
	versioning *versioning.VersioningService
	publisher  ports.EventPublisher
	hooks      *extensions.HookManager
	metrics    ports.Metrics
	tracer     ports.Tracer
	logger     *zap.Logger

	issued  atomic.Uint64
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewGraphRefresher creates a refresher. publisher, hooks, metrics and tracer are optional.
func NewGraphRefresher(
	source ports.KnowledgeSource,
	builder *GraphBuilder,
	versioningService *versioning.VersioningService,
	publisher ports.EventPublisher,
	hooks *extensions.HookManager,
	metrics ports.Metrics,
	tracer ports.Tracer,
	logger *zap.Logger,
) *GraphRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if hooks == nil {
		hooks = extensions.NewHookManager()
	}
	if versioningService == nil {
		versioningService = versioning.NewVersioningService()
	}
	return &GraphRefresher{
		source:     source,
		builder:    builder,
		versioning: versioningService,
		publisher:  publisher,
		hooks:      hooks,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
	}
}

// Current returns the last published snapshot, or nil before the first success
func (r *GraphRefresher) Current() *Snapshot {
	return r.current.Load()
}

// Ready reports whether a snapshot has been published
func (r *GraphRefresher) Ready() bool {
	return r.current.Load() != nil
}

// CurrentOrErr returns the published snapshot or ErrGraphNotReady
func (r *GraphRefresher) CurrentOrErr() (*Snapshot, error) {
	snap := r.current.Load()
	if snap == nil {
		return nil, apperrors.ErrGraphNotReady
	}
	return snap, nil
}

// VersionKey identifies the published snapshot for cache scoping
func (r *GraphRefresher) VersionKey() string {
	snap := r.current.Load()
	if snap == nil {
		return "none"
	}
	return strconv.FormatUint(snap.Version.Generation, 10)
}

// Hooks exposes the hook manager subscribers register on
func (r *GraphRefresher) Hooks() *extensions.HookManager {
	return r.hooks
}

// Refresh rebuilds the graph from the current listing. A failed fetch keeps the
// last-good snapshot. A result overtaken by a newer refresh returns ErrStaleRefresh.
func (r *GraphRefresher) Refresh(ctx context.Context) (*Snapshot, error) {
	generation := r.issued.Add(1)
	timer := r.metrics.StartTimer("graph_refresh_duration")
	defer timer.Stop()

	var raws []domainservices.RawItem
	fetch := func(ctx context.Context) error {
		var err error
		raws, err = r.source.ListItems(ctx)
		return err
	}

	var err error
	if r.tracer != nil {
		err = r.tracer.TraceFunction(ctx, "knowledge.list_items", fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil, r.fail(ctx, generation, fmt.Errorf("failed to fetch knowledge listing: %w", err))
	}

	result, err := r.builder.Build(raws)
	if err != nil {
		return nil, r.fail(ctx, generation, err)
	}

	return r.apply(ctx, generation, result)
}

// RefreshInBackground refreshes and only logs the outcome
func (r *GraphRefresher) RefreshInBackground(ctx context.Context, reason string) {
	snap, err := r.Refresh(ctx)
	if err != nil {
		if apperrors.IsStaleRefresh(err) {
			return
		}
		r.logger.Warn("Background refresh failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	r.logger.Info("Background refresh completed",
		zap.String("reason", reason),
		zap.Uint64("generation", snap.Version.Generation),
	)
}

// Run refreshes every interval until ctx is done. A non-positive interval disables polling.
func (r *GraphRefresher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RefreshInBackground(ctx, "interval")
		}
	}
}

func (r *GraphRefresher) apply(ctx context.Context, generation uint64, result *BuildResult) (*Snapshot, error) {
	r.mu.Lock()
	if latest := r.issued.Load(); generation != latest {
		r.mu.Unlock()
		r.logger.Debug("Discarding stale refresh",
			zap.Uint64("generation", generation),
			zap.Uint64("latest", latest),
		)
		r.metrics.Increment("graph_refresh_stale")
		_ = r.hooks.Execute(ctx, extensions.HookRefreshStale, generation)
		return nil, apperrors.ErrStaleRefresh.With("generation", generation)
	}

	version, err := r.versioning.CreateVersion(result.Graph, generation, string(result.Mode))
	if err != nil {
		r.mu.Unlock()
		return nil, r.fail(ctx, generation, err)
	}

	previous := r.current.Load()
	snap := &Snapshot{Graph: result.Graph, Version: version, Dropped: result.Dropped}
	r.current.Store(snap)
	r.mu.Unlock()

	fields := []zap.Field{
		zap.Uint64("generation", generation),
		zap.String("etag", version.ETag()),
		zap.Int("nodes", version.NodeCount),
		zap.Int("links", version.LinkCount),
		zap.Int("dropped", len(result.Dropped)),
	}
	if previous != nil {
		diff := r.versioning.Diff(previous.Graph, snap.Graph)
		fields = append(fields,
			zap.Int("addedNodes", len(diff.AddedNodes)),
			zap.Int("removedNodes", len(diff.RemovedNodes)),
			zap.Int("addedLinks", len(diff.AddedLinks)),
			zap.Int("removedLinks", len(diff.RemovedLinks)),
		)
	}
	r.logger.Info("Published knowledge graph", fields...)

	r.metrics.Increment("graph_builds")
	r.metrics.SetGauge("graph_nodes", float64(version.NodeCount))
	r.metrics.SetGauge("graph_links", float64(version.LinkCount))

	if r.publisher != nil {
		event := events.NewGraphRebuilt(generation, version.ETag(), version.NodeCount, version.LinkCount, version.Mode, version.BuiltAt)
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("Failed to publish graph rebuilt event", zap.Error(err))
		}
	}
	if err := r.hooks.ExecuteParallel(ctx, extensions.HookGraphPublished, snap); err != nil {
		r.logger.Warn("Graph published hook failed", zap.Error(err))
	}

	return snap, nil
}

func (r *GraphRefresher) fail(ctx context.Context, generation uint64, err error) error {
	r.logger.Warn("Graph refresh failed, keeping last-good graph",
		zap.Uint64("generation", generation),
		zap.Bool("hasSnapshot", r.Ready()),
		zap.Error(err),
	)
	r.metrics.Increment("graph_refresh_failures")

	if r.publisher != nil {
		event := events.NewRefreshFailed(generation, err.Error(), time.Now().UTC())
		if pubErr := r.publisher.Publish(ctx, event); pubErr != nil {
			r.logger.Warn("Failed to publish refresh failed event", zap.Error(pubErr))
		}
	}
	_ = r.hooks.Execute(ctx, extensions.HookRefreshFailed, err)
	return err
}
