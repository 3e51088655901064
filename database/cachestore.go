package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CacheStore is the keyed get/put/delete storage consumed by the
// personalization and translation services. Entries are namespaced by the
// caller through the key; Put has upsert semantics.
type CacheStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewCacheStore(pool *pgxpool.Pool, table string) *CacheStore {
	if table == "" {
		table = "cache_entries"
	}
	return &CacheStore{pool: pool, table: table}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *CacheStore) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return ErrNotConnected
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, s.ident())

	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Get returns the cached value for key. The second return value reports
// whether the key was present.
func (s *CacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.pool == nil {
		return "", false, ErrNotConnected
	}

	var value string
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.ident()), key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cache entry %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, overwriting any existing entry.
func (s *CacheStore) Put(ctx context.Context, key, value string) error {
	if s.pool == nil {
		return ErrNotConnected
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (key, value, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`, s.ident())

	if _, err := s.pool.Exec(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("put cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key if present. Deleting a missing key is not an error.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	if s.pool == nil {
		return ErrNotConnected
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.ident()), key); err != nil {
		return fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return nil
}

func (s *CacheStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}
