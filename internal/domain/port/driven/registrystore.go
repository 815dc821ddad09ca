package driven

import "context"

// RegistryStore persists the two registry documents: the repository →
// recipients mapping and the recipient → default-repository mapping.
// Loads happen once at startup; saves are full-document replacements after
// every registry mutation. A corrupt stored document is loaded as empty,
// never surfaced as an error.
type RegistryStore interface {
	LoadSubscriptions(ctx context.Context) (map[string][]string, error)
	SaveSubscriptions(ctx context.Context, subs map[string][]string) error

	LoadDefaults(ctx context.Context) (map[string]string, error)
	SaveDefaults(ctx context.Context, defaults map[string]string) error
}
