package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RegistryStore = (*RegistryRepo)(nil)

// RegistryRepo is the SQLite implementation of the RegistryStore port.
// Subscriptions are stored one row per repository with the recipient set
// encoded as a JSON array document; defaults are plain key-value rows.
type RegistryRepo struct {
	db *DB
}

// NewRegistryRepo creates a RegistryRepo backed by the given DB.
func NewRegistryRepo(db *DB) *RegistryRepo {
	return &RegistryRepo{db: db}
}

// LoadSubscriptions reads the full repo → recipients mapping. A row whose
// recipients document does not decode is logged and loaded as absent; a
// damaged store must never prevent startup.
func (r *RegistryRepo) LoadSubscriptions(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT repo_key, recipients FROM subscriptions`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make(map[string][]string)
	for rows.Next() {
		var repoKey, doc string
		if err := rows.Scan(&repoKey, &doc); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}

		var recipients []string
		if err := json.Unmarshal([]byte(doc), &recipients); err != nil {
			slog.Warn("skipping corrupt subscription document", "repo", repoKey, "error", err)
			continue
		}

		subs[repoKey] = recipients
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}

// SaveSubscriptions replaces the stored subscriptions document with the
// given mapping in a single transaction.
func (r *RegistryRepo) SaveSubscriptions(ctx context.Context, subs map[string][]string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save subscriptions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}

	for repoKey, recipients := range subs {
		doc, err := json.Marshal(recipients)
		if err != nil {
			return fmt.Errorf("encode recipients for %q: %w", repoKey, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (repo_key, recipients) VALUES (?, ?)`,
			repoKey, string(doc),
		); err != nil {
			return fmt.Errorf("insert subscription %q: %w", repoKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subscriptions: %w", err)
	}

	return nil
}

// LoadDefaults reads the recipient → default repository mapping.
func (r *RegistryRepo) LoadDefaults(ctx context.Context) (map[string]string, error) {
	const query = `SELECT recipient, repo_key FROM default_repos`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	defer rows.Close()

	defaults := make(map[string]string)
	for rows.Next() {
		var recipient, repoKey string
		if err := rows.Scan(&recipient, &repoKey); err != nil {
			return nil, fmt.Errorf("scan default row: %w", err)
		}
		defaults[recipient] = repoKey
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate defaults: %w", err)
	}

	return defaults, nil
}

// SaveDefaults replaces the stored defaults document with the given mapping
// in a single transaction.
func (r *RegistryRepo) SaveDefaults(ctx context.Context, defaults map[string]string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save defaults: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM default_repos`); err != nil {
		return fmt.Errorf("clear defaults: %w", err)
	}

	for recipient, repoKey := range defaults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO default_repos (recipient, repo_key) VALUES (?, ?)`,
			recipient, repoKey,
		); err != nil {
			return fmt.Errorf("insert default for %q: %w", recipient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit defaults: %w", err)
	}

	return nil
}
