// Package database provides the Postgres-backed vector collection and the
// relational key-value cache consumed by the services around the RAG core.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConnected reports that a store was used before a connection pool was
// attached. Callers branch on this rather than catching generic errors.
var ErrNotConnected = errors.New("database: not connected")

func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
