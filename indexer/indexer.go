// Package indexer embeds content chunks and writes them to the vector store.
package indexer

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/fabfab/textbook-rag/content"
	"github.com/fabfab/textbook-rag/database"
	"github.com/fabfab/textbook-rag/embeddings"
)

// UpsertBatchSize bounds how many points go to the store per round trip.
const UpsertBatchSize = 100

// VectorStore is the slice of the store the indexer needs.
type VectorStore interface {
	Upsert(ctx context.Context, points []database.Point) error
	DeleteByFilter(ctx context.Context, field, value string) (int64, error)
}

// Result summarizes an indexing run.
type Result struct {
	TotalChunks   int
	IndexedChunks int
	FailedChunks  int
	Chapters      []string
	Errors        []string
}

// Indexer drives the embed-and-upsert pipeline.
type Indexer struct {
	store    VectorStore
	embedder embeddings.Embedder
	logger   *log.Logger
}

func New(store VectorStore, embedder embeddings.Embedder, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.Default()
	}
	return &Indexer{store: store, embedder: embedder, logger: logger}
}

// Index embeds the chunks and upserts them in batches. An embedding failure
// fails the whole run; upsert failures are per batch, so a run can partially
// succeed and the result records both counts.
func (ix *Indexer) Index(ctx context.Context, chunks []content.Chunk) Result {
	result := Result{TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		return result
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embedded, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		result.FailedChunks = len(chunks)
		result.Errors = append(result.Errors, fmt.Sprintf("embed chunks: %v", err))
		ix.logger.Printf("indexing failed: %v", err)
		return result
	}

	points := make([]database.Point, len(chunks))
	chapters := make(map[string]struct{})
	for i, chunk := range chunks {
		points[i] = database.Point{
			ID:     chunk.ID,
			Vector: embedded[i].Vector,
			Payload: database.Payload{
				ChapterID:    chunk.Metadata.ChapterID,
				Title:        chunk.Metadata.Title,
				SectionTitle: chunk.Metadata.SectionTitle,
				PageURL:      chunk.Metadata.PageURL,
				Position:     chunk.Position,
				TokenCount:   chunk.TokenCount,
				Content:      chunk.Content,
			},
		}
		chapters[chunk.Metadata.ChapterID] = struct{}{}
	}

	for start := 0; start < len(points); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		if err := ix.store.Upsert(ctx, points[start:end]); err != nil {
			result.FailedChunks += end - start
			result.Errors = append(result.Errors, fmt.Sprintf("upsert batch %d-%d: %v", start, end, err))
			ix.logger.Printf("upsert batch %d-%d failed: %v", start, end, err)
			continue
		}
		result.IndexedChunks += end - start
	}

	for chapter := range chapters {
		result.Chapters = append(result.Chapters, chapter)
	}
	sort.Strings(result.Chapters)

	ix.logger.Printf("indexed %d/%d chunks across %d chapters",
		result.IndexedChunks, result.TotalChunks, len(result.Chapters))
	return result
}

// IndexDirectory parses a content tree and indexes everything in it.
func (ix *Indexer) IndexDirectory(ctx context.Context, dir, baseURL string, chunker *content.Chunker) (Result, error) {
	chunks, err := content.ParseDirectory(dir, baseURL, chunker, ix.logger)
	if err != nil {
		return Result{}, err
	}
	return ix.Index(ctx, chunks), nil
}

// ReindexChapter removes a chapter's existing points before indexing the new
// chunks, so stale sections do not linger when a chapter shrinks.
func (ix *Indexer) ReindexChapter(ctx context.Context, chapterID string, chunks []content.Chunk) (Result, error) {
	deleted, err := ix.store.DeleteByFilter(ctx, "chapter_id", chapterID)
	if err != nil {
		return Result{}, fmt.Errorf("delete chapter %s: %w", chapterID, err)
	}
	ix.logger.Printf("deleted %d existing points for chapter %s", deleted, chapterID)
	return ix.Index(ctx, chunks), nil
}

// DeleteChapter removes all points for a chapter and reports how many.
func (ix *Indexer) DeleteChapter(ctx context.Context, chapterID string) (int64, error) {
	deleted, err := ix.store.DeleteByFilter(ctx, "chapter_id", chapterID)
	if err != nil {
		return 0, fmt.Errorf("delete chapter %s: %w", chapterID, err)
	}
	ix.logger.Printf("deleted %d points for chapter %s", deleted, chapterID)
	return deleted, nil
}
