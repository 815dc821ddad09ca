package application

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// White-box tests: the reconciler's watermark table and clock are internal.

type stubStore struct {
	subs map[string][]string
}

func (s *stubStore) LoadSubscriptions(_ context.Context) (map[string][]string, error) {
	return s.subs, nil
}
func (s *stubStore) SaveSubscriptions(_ context.Context, _ map[string][]string) error { return nil }
func (s *stubStore) LoadDefaults(_ context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}
func (s *stubStore) SaveDefaults(_ context.Context, _ map[string]string) error { return nil }

type stubGitHub struct {
	mu      sync.Mutex
	items   map[string][]model.Item
	fetches []string
	err     error
}

func (g *stubGitHub) LookupRepository(_ context.Context, repo string) (string, error) {
	return repo, nil
}

func (g *stubGitHub) FetchRecentItems(_ context.Context, repo string, _ int) ([]model.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches = append(g.fetches, repo)
	if g.err != nil {
		return nil, g.err
	}
	return g.items[repo], nil
}

func (g *stubGitHub) FetchItemDetail(_ context.Context, _ string, _ int) (*model.ItemDetail, error) {
	return nil, nil
}

type stubSender struct {
	mu    sync.Mutex
	sends []string
}

func (s *stubSender) Send(_ context.Context, recipient, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, recipient+": "+text)
	return nil
}

func newTestReconciler(t *testing.T, gh *stubGitHub, subs map[string][]string) (*Reconciler, *stubSender) {
	t.Helper()

	registry := NewRegistry(&stubStore{subs: subs}, gh, true, slog.Default())
	require.NoError(t, registry.Load(context.Background()))

	sender := &stubSender{}
	notifier := NewNotifier(registry, sender, slog.Default())
	notifier.pace = time.Millisecond

	r := NewReconciler(gh, registry, notifier, time.Minute, 20, slog.Default())
	return r, sender
}

func TestReconciler_FirstPassEstablishesBaseline(t *testing.T) {
	gh := &stubGitHub{}
	r, _ := newTestReconciler(t, gh, map[string][]string{"octocat/hello-world": {"room:1"}})

	before := time.Now().UTC()
	r.RunOnce(context.Background())
	after := time.Now().UTC()

	assert.Empty(t, gh.fetches, "baseline pass never fetches")

	wm, ok := r.watermarks["octocat/hello-world"]
	require.True(t, ok)
	assert.False(t, wm.Before(before))
	assert.False(t, wm.After(after))
}

func TestReconciler_DetectsItemsNewerThanWatermark(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gh := &stubGitHub{items: map[string][]model.Item{
		"octocat/hello-world": {
			{Number: 3, Title: "newest", CreatedAt: base.Add(3 * time.Minute)},
			{Number: 2, Title: "newer", CreatedAt: base.Add(2 * time.Minute)},
			{Number: 1, Title: "old", CreatedAt: base.Add(-time.Minute)},
		},
	}}
	r, sender := newTestReconciler(t, gh, map[string][]string{"octocat/hello-world": {"room:1"}})
	r.watermarks["octocat/hello-world"] = base

	r.RunOnce(context.Background())

	require.Len(t, sender.sends, 2)
	assert.Contains(t, sender.sends[0], "#3 newest")
	assert.Contains(t, sender.sends[1], "#2 newer")
}

func TestReconciler_WatermarkAdvancesEvenOnFetchFailure(t *testing.T) {
	gh := &stubGitHub{err: assert.AnError}
	r, sender := newTestReconciler(t, gh, map[string][]string{"octocat/hello-world": {"room:1"}})

	stale := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r.watermarks["octocat/hello-world"] = stale

	r.RunOnce(context.Background())

	assert.Empty(t, sender.sends)
	assert.True(t, r.watermarks["octocat/hello-world"].After(stale),
		"a failed pass must still advance the watermark so the window is never retried forever")
}

func TestReconciler_OneRepoFailureDoesNotAbortOthers(t *testing.T) {
	// Both repos watched; the stub fails every fetch, so both repos must
	// still be attempted.
	gh := &stubGitHub{err: assert.AnError}
	r, _ := newTestReconciler(t, gh, map[string][]string{
		"a/one": {"room:1"},
		"b/two": {"room:1"},
	})
	r.watermarks["a/one"] = time.Now().UTC().Add(-time.Hour)
	r.watermarks["b/two"] = time.Now().UTC().Add(-time.Hour)

	r.RunOnce(context.Background())

	assert.ElementsMatch(t, []string{"a/one", "b/two"}, gh.fetches)
}

func TestReconciler_SeedAndClear(t *testing.T) {
	gh := &stubGitHub{}
	r, _ := newTestReconciler(t, gh, map[string][]string{})

	r.Seed("octocat/hello-world")
	first, ok := r.watermarks["octocat/hello-world"]
	require.True(t, ok)

	r.Seed("octocat/hello-world")
	assert.Equal(t, first, r.watermarks["octocat/hello-world"], "seeding an existing watermark is a no-op")

	r.Clear("octocat/hello-world")
	_, ok = r.watermarks["octocat/hello-world"]
	assert.False(t, ok)
}

func TestReconciler_StartReturnsAfterCancel(t *testing.T) {
	gh := &stubGitHub{}
	r, _ := newTestReconciler(t, gh, map[string][]string{"octocat/hello-world": {"room:1"}})
	r.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	// Let at least one pass run, then cancel. The shutdown path joins this
	// goroutine before closing the database, so Start must return.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, ok := r.watermarks["octocat/hello-world"]
		return ok
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestNewItemsSince_ShortCircuits(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []model.Item{
		{Number: 4, CreatedAt: watermark.Add(3 * time.Second)},
		{Number: 3, CreatedAt: watermark.Add(2 * time.Second)},
		{Number: 2, CreatedAt: watermark.Add(-time.Second)},
		// Out-of-order trailing item newer than the watermark: the walk
		// already stopped, so it must not be reported.
		{Number: 1, CreatedAt: watermark.Add(5 * time.Second)},
	}

	fresh := NewItemsSince(items, watermark)
	require.Len(t, fresh, 2)
	assert.Equal(t, 4, fresh[0].Number)
	assert.Equal(t, 3, fresh[1].Number)
}

func TestNewItemsSince_ExactWatermarkIsNotNew(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []model.Item{{Number: 1, CreatedAt: watermark}}

	assert.Empty(t, NewItemsSince(items, watermark), "strictly-newer comparison")
}
