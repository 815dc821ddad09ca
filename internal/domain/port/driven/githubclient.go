package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// ErrRepoNotFound is returned by LookupRepository when the repository does
// not exist (or the token cannot see it).
var ErrRepoNotFound = errors.New("repository not found")

// GitHubClient defines the driven port for the GitHub REST API.
type GitHubClient interface {
	// LookupRepository confirms the repository exists and returns its
	// canonical display name ("Owner/Name" with GitHub's casing).
	// Returns ErrRepoNotFound for a 404.
	LookupRepository(ctx context.Context, repoFullName string) (string, error)

	// FetchRecentItems returns the most recent issues and pull requests for
	// the repository, newest-first by creation time, at most perPage items.
	// Only the first page is fetched; the reconciler never backfills.
	FetchRecentItems(ctx context.Context, repoFullName string, perPage int) ([]model.Item, error)

	// FetchItemDetail fetches a single issue or pull request by number.
	// When the item turns out to be a pull request, the PR endpoint is
	// consulted so diff stats and merge state are populated.
	FetchItemDetail(ctx context.Context, repoFullName string, number int) (*model.ItemDetail, error)
}
