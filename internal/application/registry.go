// Package application contains the subscription registry, the polling
// reconciler, and the notification dispatch services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// ErrNotSubscribed is returned by Unsubscribe when the recipient is not
// subscribed to the repository.
var ErrNotSubscribed = errors.New("not subscribed")

// Registry is the durable mapping of repository key → recipient set plus
// the per-recipient default repository. The in-memory state is the
// authority for the running process; every mutation is followed by a full
// persist whose failure is logged, never rolled back.
type Registry struct {
	store    driven.RegistryStore
	gh       driven.GitHubClient
	caseFold bool
	logger   *slog.Logger

	mu       sync.Mutex
	subs     map[string]map[string]struct{}
	defaults map[string]string

	// Watermark hooks, wired to the reconciler in poll mode. Seed runs for
	// newly created subscription entries so polling starts from "now"
	// instead of notifying about pre-existing history; clear runs when an
	// entry is deleted.
	seedWatermark  func(repoKey string)
	clearWatermark func(repoKey string)
}

// NewRegistry creates a Registry. caseFold controls whether newly created
// keys are lower-cased; resolution always matches case-insensitively
// against existing keys so differently-cased inputs can never create a
// duplicate entry.
func NewRegistry(store driven.RegistryStore, gh driven.GitHubClient, caseFold bool, logger *slog.Logger) *Registry {
	return &Registry{
		store:          store,
		gh:             gh,
		caseFold:       caseFold,
		logger:         logger,
		subs:           make(map[string]map[string]struct{}),
		defaults:       make(map[string]string),
		seedWatermark:  func(string) {},
		clearWatermark: func(string) {},
	}
}

// SetWatermarkHooks wires the reconciler's watermark lifecycle into
// subscription create/delete. Must be called before the registry serves
// writes; no-op hooks are in place until then.
func (r *Registry) SetWatermarkHooks(seed, clear func(repoKey string)) {
	r.seedWatermark = seed
	r.clearWatermark = clear
}

// Load reads both registry documents from the store. Called once at
// startup, before any reads or writes.
func (r *Registry) Load(ctx context.Context) error {
	subs, err := r.store.LoadSubscriptions(ctx)
	if err != nil {
		return err
	}
	defaults, err := r.store.LoadDefaults(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = make(map[string]map[string]struct{}, len(subs))
	for repoKey, recipients := range subs {
		set := make(map[string]struct{}, len(recipients))
		for _, recipient := range recipients {
			set[recipient] = struct{}{}
		}
		if len(set) > 0 {
			r.subs[repoKey] = set
		}
	}

	r.defaults = defaults
	if r.defaults == nil {
		r.defaults = make(map[string]string)
	}

	r.logger.Info("registry loaded", "repos", len(r.subs), "defaults", len(r.defaults))
	return nil
}

// ResolveKey finds the stored key for a repository name: exact match first,
// then a case-insensitive scan. It never fabricates a new key.
func (r *Registry) ResolveKey(repo string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveKeyLocked(repo)
}

func (r *Registry) resolveKeyLocked(repo string) (string, bool) {
	if _, ok := r.subs[repo]; ok {
		return repo, true
	}
	for key := range r.subs {
		if strings.EqualFold(key, repo) {
			return key, true
		}
	}
	return "", false
}

// Subscribe adds the recipient to the repository's subscription after
// confirming the repository exists upstream. It returns the canonical
// display name and whether the recipient was already subscribed. The
// recipient's default repository is set as a side effect.
func (r *Registry) Subscribe(ctx context.Context, repo, recipient string) (string, bool, error) {
	// Network call happens outside the lock.
	display, err := r.gh.LookupRepository(ctx, repo)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	key, found := r.resolveKeyLocked(display)
	if !found {
		key = display
		if r.caseFold {
			key = strings.ToLower(display)
		}
		r.subs[key] = make(map[string]struct{})
	}

	_, already := r.subs[key][recipient]
	r.subs[key][recipient] = struct{}{}
	r.defaults[recipient] = display
	r.persistSubscriptionsLocked(ctx)
	r.persistDefaultsLocked(ctx)
	r.mu.Unlock()

	if !found {
		r.seedWatermark(key)
	}

	return display, already, nil
}

// Unsubscribe removes the recipient from one repository's subscription.
// The entry is deleted (and its watermark cleared) when the recipient was
// its last member. Returns ErrNotSubscribed when there is nothing to remove.
func (r *Registry) Unsubscribe(ctx context.Context, repo, recipient string) error {
	r.mu.Lock()

	key, found := r.resolveKeyLocked(repo)
	if !found {
		r.mu.Unlock()
		return ErrNotSubscribed
	}
	if _, member := r.subs[key][recipient]; !member {
		r.mu.Unlock()
		return ErrNotSubscribed
	}

	delete(r.subs[key], recipient)
	removed := len(r.subs[key]) == 0
	if removed {
		delete(r.subs, key)
	}
	r.persistSubscriptionsLocked(ctx)
	r.mu.Unlock()

	if removed {
		r.clearWatermark(key)
	}

	return nil
}

// UnsubscribeAll removes the recipient from every subscription and returns
// the repository keys it was removed from, sorted. An empty result means
// the recipient was not subscribed anywhere.
func (r *Registry) UnsubscribeAll(ctx context.Context, recipient string) []string {
	r.mu.Lock()

	var removedFrom []string
	var cleared []string
	for key, set := range r.subs {
		if _, member := set[recipient]; !member {
			continue
		}
		delete(set, recipient)
		removedFrom = append(removedFrom, key)
		if len(set) == 0 {
			delete(r.subs, key)
			cleared = append(cleared, key)
		}
	}

	if len(removedFrom) > 0 {
		r.persistSubscriptionsLocked(ctx)
	}
	r.mu.Unlock()

	for _, key := range cleared {
		r.clearWatermark(key)
	}

	sort.Strings(removedFrom)
	return removedFrom
}

// ListFor returns the repository keys the recipient is subscribed to, sorted.
func (r *Registry) ListFor(recipient string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var repos []string
	for key, set := range r.subs {
		if _, member := set[recipient]; member {
			repos = append(repos, key)
		}
	}

	sort.Strings(repos)
	return repos
}

// Recipients returns the subscriber set for a repository, sorted. The key
// is resolved case-insensitively; an unresolved name is looked up literally
// and yields an empty set.
func (r *Registry) Recipients(repo string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, found := r.resolveKeyLocked(repo)
	if !found {
		key = repo
	}

	recipients := make([]string, 0, len(r.subs[key]))
	for recipient := range r.subs[key] {
		recipients = append(recipients, recipient)
	}

	sort.Strings(recipients)
	return recipients
}

// WatchedRepos returns every repository key with at least one subscriber,
// sorted. This is the reconciler's work list.
func (r *Registry) WatchedRepos() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	repos := make([]string, 0, len(r.subs))
	for key, set := range r.subs {
		if len(set) > 0 {
			repos = append(repos, key)
		}
	}

	sort.Strings(repos)
	return repos
}

// SetDefault records the recipient's default repository in display form.
// Independent of subscriptions: a recipient may default to a repository it
// is not subscribed to.
func (r *Registry) SetDefault(ctx context.Context, recipient, repo string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaults[recipient] = repo
	r.persistDefaultsLocked(ctx)
}

// GetDefault returns the recipient's default repository, if set.
func (r *Registry) GetDefault(recipient string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	repo, ok := r.defaults[recipient]
	return repo, ok
}

// persistSubscriptionsLocked writes the full subscriptions document.
// Persistence failure is logged; the in-memory state stays authoritative
// and the next mutation retries the write.
func (r *Registry) persistSubscriptionsLocked(ctx context.Context) {
	subs := make(map[string][]string, len(r.subs))
	for key, set := range r.subs {
		recipients := make([]string, 0, len(set))
		for recipient := range set {
			recipients = append(recipients, recipient)
		}
		sort.Strings(recipients)
		subs[key] = recipients
	}

	if err := r.store.SaveSubscriptions(ctx, subs); err != nil {
		r.logger.Error("persisting subscriptions failed", "error", err)
	}
}

// persistDefaultsLocked writes the full defaults document; same failure
// policy as persistSubscriptionsLocked.
func (r *Registry) persistDefaultsLocked(ctx context.Context) {
	defaults := make(map[string]string, len(r.defaults))
	for recipient, repo := range r.defaults {
		defaults[recipient] = repo
	}

	if err := r.store.SaveDefaults(ctx, defaults); err != nil {
		r.logger.Error("persisting defaults failed", "error", err)
	}
}
