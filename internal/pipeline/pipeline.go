package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-cluster-service/internal/domain"
	"github.com/couchcryptid/quake-cluster-service/internal/observability"
)

// EventFetcher supplies the event window for one run.
type EventFetcher interface {
	FetchWindow(ctx context.Context) ([]domain.QuakeEvent, error)
}

// ClusterSyncer reconciles one summarized cluster against the catalog.
type ClusterSyncer interface {
	Sync(ctx context.Context, stableKey string, sum domain.ClusterSummary) (domain.CatalogChange, error)
}

// ChangeAnnouncer publishes committed catalog changes for downstream consumers.
type ChangeAnnouncer interface {
	AnnounceBatch(ctx context.Context, changes []domain.CatalogChange) error
}

// Params bundles the clustering, identity, and scheduling knobs for a run.
type Params struct {
	Cluster                 domain.ClusterParams
	Quantization            domain.Quantization
	MinSignificantMagnitude float64
	Interval                time.Duration
}

// Pipeline executes the fetch-cluster-sync cycle on a schedule. One batch per
// tick; a failed feed fetch aborts the run before any catalog write, while
// per-cluster failures are recorded and skipped.
type Pipeline struct {
	fetcher   EventFetcher
	syncer    ClusterSyncer
	announcer ChangeAnnouncer // nil disables announcements
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	params    Params

	ready atomic.Bool

	mu        sync.RWMutex
	lastRun   domain.RunSummary
	lastRunAt time.Time
	hasRun    bool
}

// New creates a Pipeline with the given stages and observability.
func New(fetcher EventFetcher, syncer ClusterSyncer, announcer ChangeAnnouncer,
	logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, params Params) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		syncer:    syncer,
		announcer: announcer,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		params:    params,
	}
}

// CheckReadiness returns nil once at least one run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no clustering run has completed yet")
	}
	return nil
}

// LastRun returns the most recent run summary and its completion time.
func (p *Pipeline) LastRun() (domain.RunSummary, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastRun, p.lastRunAt, p.hasRun
}

// Run executes one batch immediately, then one per interval tick until the
// context is cancelled. A failed run is logged and retried on the next tick;
// the stable-key-keyed upsert makes the retry idempotent.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("cluster pipeline started",
		"interval", p.params.Interval,
		"max_distance_km", p.params.Cluster.MaxDistanceKm,
		"min_members", p.params.Cluster.MinMembers,
		"min_significant_magnitude", p.params.MinSignificantMagnitude,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.params.Interval)
	defer ticker.Stop()

	for {
		summary, err := p.RunOnce(ctx)
		switch {
		case ctx.Err() != nil:
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case err != nil:
			p.logger.Error("clustering run failed", "error", err)
		default:
			p.logger.Info("clustering run complete",
				"events", summary.EventsFetched,
				"candidates", summary.CandidateClusters,
				"significant", summary.SignificantClusters,
				"processed", summary.Processed,
				"created", summary.Created,
				"updated", summary.Updated,
				"errors", len(summary.Errors),
			)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs a single fetch-cluster-sync cycle and returns its summary.
// The error return is non-nil only for run-fatal failures (the feed fetch);
// everything after that point degrades to per-cluster entries in
// Summary.Errors.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	start := time.Now()
	var summary domain.RunSummary

	events, err := p.fetcher.FetchWindow(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("fetch event window: %w", err)
	}
	summary.EventsFetched = len(events)

	clusters := domain.FindClusters(events, p.params.Cluster)
	summary.CandidateClusters = len(clusters)
	p.metrics.CandidateClusters.Observe(float64(len(clusters)))
	for _, c := range clusters {
		p.metrics.ClusterSize.Observe(float64(len(c)))
	}

	candidates := p.collectSignificant(clusters, &summary)
	summary.SignificantClusters = len(candidates)
	p.metrics.SignificantClusters.Observe(float64(len(candidates)))

	changes := p.syncAll(ctx, candidates, &summary)
	p.announce(ctx, changes)

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	now := p.clock.Now()
	p.metrics.LastRunTimestamp.Set(float64(now.Unix()))
	p.ready.Store(true)

	p.mu.Lock()
	p.lastRun = summary
	p.lastRunAt = now
	p.hasRun = true
	p.mu.Unlock()

	return summary, nil
}

// syncCandidate pairs a summary with its precomputed stable key.
type syncCandidate struct {
	key     string
	summary domain.ClusterSummary
}

// collectSignificant summarizes each cluster and keeps the ones clearing the
// magnitude threshold (inclusive; MinMembers was already enforced by the
// finder). Candidates are ordered by descending significance so the most
// material updates land first within the run.
func (p *Pipeline) collectSignificant(clusters []domain.Cluster, summary *domain.RunSummary) []syncCandidate {
	candidates := make([]syncCandidate, 0, len(clusters))
	for _, c := range clusters {
		cs, err := domain.Summarize(c)
		if err != nil {
			p.logger.Warn("cluster summary failed, skipping", "size", len(c), "error", err)
			p.metrics.SyncErrors.Inc()
			summary.Errors = append(summary.Errors, domain.RunError{Message: err.Error()})
			continue
		}
		if cs.Strongest.Magnitude < p.params.MinSignificantMagnitude {
			continue
		}
		candidates = append(candidates, syncCandidate{
			key:     domain.NewStableKey(cs, p.params.Quantization),
			summary: cs,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].summary.Significance != candidates[j].summary.Significance {
			return candidates[i].summary.Significance > candidates[j].summary.Significance
		}
		return candidates[i].key < candidates[j].key
	})
	return candidates
}

// syncAll reconciles each candidate against the catalog. A failure on one
// stable key is recorded and does not stop the rest of the batch.
func (p *Pipeline) syncAll(ctx context.Context, candidates []syncCandidate, summary *domain.RunSummary) []domain.CatalogChange {
	changes := make([]domain.CatalogChange, 0, len(candidates))
	for _, cand := range candidates {
		change, err := p.syncer.Sync(ctx, cand.key, cand.summary)
		if err != nil {
			p.logger.Error("cluster sync failed", "stable_key", cand.key, "error", err)
			p.metrics.SyncErrors.Inc()
			summary.Errors = append(summary.Errors, domain.RunError{StableKey: cand.key, Message: err.Error()})
			continue
		}
		summary.Processed++
		if change.Action == domain.ActionCreated {
			summary.Created++
			p.metrics.DefinitionsCreated.Inc()
		} else {
			summary.Updated++
			p.metrics.DefinitionsUpdated.Inc()
		}
		changes = append(changes, change)
	}
	return changes
}

// announce publishes the run's changes when an announcer is configured.
// Publish failures are operational, not per-cluster: the catalog writes have
// already committed, so the failure is logged and counted but the run still
// succeeds.
func (p *Pipeline) announce(ctx context.Context, changes []domain.CatalogChange) {
	if p.announcer == nil || len(changes) == 0 {
		return
	}
	if err := p.announcer.AnnounceBatch(ctx, changes); err != nil {
		p.logger.Error("announce catalog changes failed", "count", len(changes), "error", err)
		p.metrics.AnnounceErrors.Inc()
		return
	}
	p.metrics.Announcements.Add(float64(len(changes)))
}
