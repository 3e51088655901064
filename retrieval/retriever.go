// Package retrieval runs vector search over indexed content and shapes the
// hits for context assembly.
package retrieval

import (
	"context"
	"fmt"
	"log"

	"github.com/fabfab/textbook-rag/database"
	"github.com/fabfab/textbook-rag/query"
)

const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.5
	MaxTopK               = 20
)

// chapterOverfetch widens chapter-filtered searches so post-filtering still
// yields enough hits.
const chapterOverfetch = 3

// Searcher is the slice of the vector store retrieval needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]database.SearchHit, error)
}

// QueryProcessor turns a raw question into an embedded query.
type QueryProcessor interface {
	Process(ctx context.Context, raw string) (*query.ProcessedQuery, error)
}

// Chunk is one retrieved piece of content with its relevance score.
type Chunk struct {
	ID           string
	Content      string
	ChapterID    string
	Title        string
	SectionTitle string
	PageURL      string
	Position     int
	Score        float64
}

// Result is the outcome of one retrieval.
type Result struct {
	Query          string
	ProcessedQuery string
	Chunks         []Chunk
	TotalFound     int
}

// Retriever searches the vector store for content relevant to a query.
type Retriever struct {
	store     Searcher
	processor QueryProcessor
	logger    *log.Logger
}

func New(store Searcher, processor QueryProcessor, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.Default()
	}
	return &Retriever{store: store, processor: processor, logger: logger}
}

// Retrieve embeds the query and returns the top scoring chunks. Non-positive
// topK and threshold fall back to defaults; topK is clamped to MaxTopK.
func (r *Retriever) Retrieve(ctx context.Context, rawQuery string, topK int, scoreThreshold float64) (*Result, error) {
	processed, err := r.processor.Process(ctx, rawQuery)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}

	topK = clampTopK(topK)
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}

	hits, err := r.store.Search(ctx, processed.Embedding, topK, scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	result := &Result{
		Query:          rawQuery,
		ProcessedQuery: processed.ProcessedQuery,
		Chunks:         hitsToChunks(hits),
		TotalFound:     len(hits),
	}
	r.logger.Printf("retrieved %d chunks for query", len(hits))
	return result, nil
}

// RetrieveWithEmbedding searches with a precomputed embedding, skipping query
// processing.
func (r *Retriever) RetrieveWithEmbedding(ctx context.Context, embedding []float32, topK int, scoreThreshold float64) (*Result, error) {
	topK = clampTopK(topK)
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}

	hits, err := r.store.Search(ctx, embedding, topK, scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return &Result{
		Chunks:     hitsToChunks(hits),
		TotalFound: len(hits),
	}, nil
}

// RetrieveByChapter retrieves only chunks from the given chapter. The store
// search is widened and filtered client side, then truncated to topK.
func (r *Retriever) RetrieveByChapter(ctx context.Context, rawQuery, chapterID string, topK int, scoreThreshold float64) (*Result, error) {
	processed, err := r.processor.Process(ctx, rawQuery)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}

	topK = clampTopK(topK)
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}

	hits, err := r.store.Search(ctx, processed.Embedding, topK*chapterOverfetch, scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var chunks []Chunk
	for _, hit := range hits {
		if hit.Payload.ChapterID != chapterID {
			continue
		}
		chunks = append(chunks, hitToChunk(hit))
		if len(chunks) == topK {
			break
		}
	}

	result := &Result{
		Query:          rawQuery,
		ProcessedQuery: processed.ProcessedQuery,
		Chunks:         chunks,
		TotalFound:     len(chunks),
	}
	r.logger.Printf("retrieved %d chunks for chapter %s", len(chunks), chapterID)
	return result, nil
}

func clampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

func hitsToChunks(hits []database.SearchHit) []Chunk {
	chunks := make([]Chunk, len(hits))
	for i, hit := range hits {
		chunks[i] = hitToChunk(hit)
	}
	return chunks
}

func hitToChunk(hit database.SearchHit) Chunk {
	return Chunk{
		ID:           hit.ID,
		Content:      hit.Payload.Content,
		ChapterID:    hit.Payload.ChapterID,
		Title:        hit.Payload.Title,
		SectionTitle: hit.Payload.SectionTitle,
		PageURL:      hit.Payload.PageURL,
		Position:     hit.Payload.Position,
		Score:        hit.Score,
	}
}
