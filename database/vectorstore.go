package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Payload is the typed metadata record stored alongside each vector. It is
// serialized to a JSONB column at the store boundary; the pipeline itself
// never handles untyped maps. Content is duplicated into the payload so a
// search hit can be displayed without a second lookup.
type Payload struct {
	ChapterID    string `json:"chapter_id"`
	Title        string `json:"title"`
	SectionTitle string `json:"section_title"`
	PageURL      string `json:"page_url"`
	Position     int    `json:"position"`
	TokenCount   int    `json:"token_count"`
	Content      string `json:"content"`
}

// Point is a single vector with its identifier and payload, ready to upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// SearchHit is one similarity-search result. Score is cosine similarity
// mapped into [0,1], highest first.
type SearchHit struct {
	ID      string
	Score   float64
	Payload Payload
}

// VectorStore implements the vector collection contract on Postgres with the
// pgvector extension: idempotent upserts keyed by point ID, cosine similarity
// search with a score threshold, and filter-scoped deletes against the
// payload.
type VectorStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewVectorStore(pool *pgxpool.Pool, table string) *VectorStore {
	return &VectorStore{pool: pool, table: table}
}

// CollectionExists reports whether the collection table has been created.
func (s *VectorStore) CollectionExists(ctx context.Context) (bool, error) {
	if s.pool == nil {
		return false, ErrNotConnected
	}

	var regclass *string
	err := s.pool.QueryRow(ctx, "SELECT to_regclass($1)::text", s.table).Scan(&regclass)
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", s.table, err)
	}
	return regclass != nil, nil
}

// EnsureCollection creates the collection table and its cosine index if they
// do not exist. Safe to call at every startup.
func (s *VectorStore) EnsureCollection(ctx context.Context, dimension int) error {
	if s.pool == nil {
		return ErrNotConnected
	}
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	table := s.ident()
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			payload JSONB NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_chapter ON %s ((payload->>'chapter_id'))`, s.table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s USING ivfflat (embedding vector_cosine_ops)`, s.table, table),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// Upsert inserts or updates points keyed by ID inside one transaction.
// Re-indexing unchanged content therefore overwrites in place.
func (s *VectorStore) Upsert(ctx context.Context, points []Point) (err error) {
	if s.pool == nil {
		return ErrNotConnected
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, payload, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    embedding = EXCLUDED.embedding,
		    updated_at = NOW()
	`, s.ident())

	for _, point := range points {
		payloadJSON, marshalErr := json.Marshal(point.Payload)
		if marshalErr != nil {
			err = fmt.Errorf("marshal payload for %s: %w", point.ID, marshalErr)
			return err
		}
		if _, err = tx.Exec(ctx, stmt, point.ID, payloadJSON, pgvector.NewVector(point.Vector)); err != nil {
			err = fmt.Errorf("upsert point %s: %w", point.ID, err)
			return err
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("commit upsert: %w", commitErr)
	}
	return nil
}

// Search returns up to limit hits with cosine similarity at or above
// scoreThreshold, ordered by descending score.
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]SearchHit, error) {
	if s.pool == nil {
		return nil, ErrNotConnected
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf(`
		SELECT id, payload, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, s.ident())

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), scoreThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0, limit)
	for rows.Next() {
		var (
			hit         SearchHit
			payloadJSON []byte
		)
		if err := rows.Scan(&hit.ID, &payloadJSON, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &hit.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return hits, nil
}

// DeleteByFilter removes all points whose payload field equals value and
// returns the number of points removed.
func (s *VectorStore) DeleteByFilter(ctx context.Context, field, value string) (int64, error) {
	if s.pool == nil {
		return 0, ErrNotConnected
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE payload->>$1 = $2", s.ident())
	tag, err := s.pool.Exec(ctx, stmt, field, value)
	if err != nil {
		return 0, fmt.Errorf("delete by %s=%s: %w", field, value, err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of stored points.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, ErrNotConnected
	}

	var count int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.ident())).Scan(&count); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}

func (s *VectorStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}
