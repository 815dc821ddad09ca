package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
	"github.com/ericfisherdev/repowatch/internal/format"
)

// Reconciler is the pull-based ingestion path: a single loop that
// periodically diffs each watched repository against its watermark and
// notifies subscribers about items created since the last pass. It runs
// only when webhook ingestion is disabled; the two modes never coexist in
// one deployment.
type Reconciler struct {
	gh       driven.GitHubClient
	registry *Registry
	notifier *Notifier
	interval time.Duration
	pageSize int
	logger   *slog.Logger

	// now is replaceable in tests.
	now func() time.Time

	// Watermarks are held only in memory: after a restart every repository
	// re-baselines on its first pass instead of backfilling.
	mu         sync.Mutex
	watermarks map[string]time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	gh driven.GitHubClient,
	registry *Registry,
	notifier *Notifier,
	interval time.Duration,
	pageSize int,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		gh:         gh,
		registry:   registry,
		notifier:   notifier,
		interval:   interval,
		pageSize:   pageSize,
		logger:     logger,
		now:        time.Now,
		watermarks: make(map[string]time.Time),
	}
}

// Seed establishes a watermark at "now" for a newly subscribed repository
// so its pre-existing history is never notified. Existing watermarks are
// left alone.
func (r *Reconciler) Seed(repoKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watermarks[repoKey]; !ok {
		r.watermarks[repoKey] = r.now().UTC()
	}
}

// Clear drops a repository's watermark after its subscription entry is
// deleted.
func (r *Reconciler) Clear(repoKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watermarks, repoKey)
}

// Start runs the polling loop until the context is canceled. The first
// pass happens one interval after start, not immediately.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("polling reconciler started", "interval", r.interval, "page_size", r.pageSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("polling reconciler stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs one reconciliation pass over every repository with at
// least one subscriber. A failure in one repository's pass is logged and
// does not abort the remaining repositories.
func (r *Reconciler) RunOnce(ctx context.Context) {
	start := time.Now()
	repos := r.registry.WatchedRepos()

	var passErrors, newItems int
	for _, repoKey := range repos {
		if ctx.Err() != nil {
			return
		}

		count, err := r.reconcileRepo(ctx, repoKey)
		if err != nil {
			r.logger.Error("reconciliation pass failed", "repo", repoKey, "error", err)
			passErrors++
			continue
		}
		newItems += count
	}

	reconcilePasses.Inc()
	reconcileNewItems.Add(float64(newItems))

	r.logger.Info("reconciliation cycle complete",
		"repos", len(repos),
		"new_items", newItems,
		"errors", passErrors,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// reconcileRepo runs one pass for one repository. Whatever happens (no
// watermark, fetch failure, parse error), the watermark advances to "now"
// at the end of the pass: losing one window across a transient failure is
// the price of a loop that can never retry the same window forever.
func (r *Reconciler) reconcileRepo(ctx context.Context, repoKey string) (int, error) {
	defer func() {
		r.mu.Lock()
		r.watermarks[repoKey] = r.now().UTC()
		r.mu.Unlock()
	}()

	r.mu.Lock()
	watermark, ok := r.watermarks[repoKey]
	r.mu.Unlock()

	if !ok {
		// First observation establishes the baseline; never backfill.
		r.logger.Info("watermark baseline established", "repo", repoKey)
		return 0, nil
	}

	items, err := r.gh.FetchRecentItems(ctx, repoKey, r.pageSize)
	if err != nil {
		return 0, err
	}

	newItems := NewItemsSince(items, watermark)
	for _, item := range newItems {
		r.notifier.Notify(ctx, repoKey, format.NewItem(repoKey, item))
	}

	if len(newItems) > 0 {
		r.logger.Info("new items detected", "repo", repoKey, "count", len(newItems))
	}

	return len(newItems), nil
}

// NewItemsSince walks a newest-first listing and returns the items created
// strictly after the watermark, in listing order. The walk stops at the
// first item that is not newer: honoring the upstream sort keeps a pass at
// O(items since last check) instead of O(page size).
func NewItemsSince(items []model.Item, watermark time.Time) []model.Item {
	var fresh []model.Item
	for _, item := range items {
		if !item.CreatedAt.UTC().After(watermark) {
			break
		}
		fresh = append(fresh, item)
	}
	return fresh
}
