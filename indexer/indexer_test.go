package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/textbook-rag/content"
	"github.com/fabfab/textbook-rag/database"
	"github.com/fabfab/textbook-rag/embeddings"
)

// stubStore records upserts and deletes, optionally failing chosen calls.
type stubStore struct {
	upserts      [][]database.Point
	failUpsert   map[int]error // keyed by call index
	deletedField string
	deletedValue string
	deleteCount  int64
	deleteErr    error
	deleteCalls  int
}

func (s *stubStore) Upsert(_ context.Context, points []database.Point) error {
	call := len(s.upserts)
	s.upserts = append(s.upserts, points)
	if err, ok := s.failUpsert[call]; ok {
		return err
	}
	return nil
}

func (s *stubStore) DeleteByFilter(_ context.Context, field, value string) (int64, error) {
	s.deleteCalls++
	s.deletedField = field
	s.deletedValue = value
	return s.deleteCount, s.deleteErr
}

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([]embeddings.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	results := make([]embeddings.Result, len(texts))
	for i, text := range texts {
		results[i] = embeddings.Result{Text: text, Vector: []float32{float32(i)}, TokenCount: 1}
	}
	return results, nil
}

func makeChunks(n int, chapter string) []content.Chunk {
	chunks := make([]content.Chunk, n)
	for i := range chunks {
		chunks[i] = content.Chunk{
			ID:      chapter + "-" + string(rune('a'+i%26)),
			Content: "chunk content",
			Metadata: content.Metadata{
				ChapterID:    chapter,
				Title:        "Title",
				SectionTitle: "Section",
			},
			Position:   i,
			TokenCount: 120,
		}
	}
	return chunks
}

func TestIndexEmpty(t *testing.T) {
	ix := New(&stubStore{}, &stubEmbedder{}, nil)

	result := ix.Index(context.Background(), nil)

	assert.Zero(t, result.TotalChunks)
	assert.Zero(t, result.IndexedChunks)
	assert.Empty(t, result.Errors)
}

func TestIndexSuccess(t *testing.T) {
	store := &stubStore{}
	ix := New(store, &stubEmbedder{}, nil)

	result := ix.Index(context.Background(), makeChunks(3, "ch1"))

	assert.Equal(t, 3, result.TotalChunks)
	assert.Equal(t, 3, result.IndexedChunks)
	assert.Zero(t, result.FailedChunks)
	assert.Equal(t, []string{"ch1"}, result.Chapters)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "ch1", store.upserts[0][0].Payload.ChapterID)
	assert.Equal(t, "chunk content", store.upserts[0][0].Payload.Content)
}

func TestIndexEmbedFailureFailsEverything(t *testing.T) {
	store := &stubStore{}
	ix := New(store, &stubEmbedder{err: errors.New("quota exceeded")}, nil)

	result := ix.Index(context.Background(), makeChunks(5, "ch1"))

	assert.Equal(t, 5, result.TotalChunks)
	assert.Zero(t, result.IndexedChunks)
	assert.Equal(t, 5, result.FailedChunks)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "quota exceeded")
	assert.Empty(t, store.upserts)
}

func TestIndexPartialUpsertFailure(t *testing.T) {
	store := &stubStore{failUpsert: map[int]error{1: errors.New("pg timeout")}}
	ix := New(store, &stubEmbedder{}, nil)

	result := ix.Index(context.Background(), makeChunks(150, "ch1"))

	assert.Equal(t, 150, result.TotalChunks)
	assert.Equal(t, 100, result.IndexedChunks)
	assert.Equal(t, 50, result.FailedChunks)
	require.Len(t, result.Errors, 1)
	require.Len(t, store.upserts, 2)
	assert.Len(t, store.upserts[0], 100)
	assert.Len(t, store.upserts[1], 50)
}

func TestIndexSortsChapters(t *testing.T) {
	ix := New(&stubStore{}, &stubEmbedder{}, nil)
	chunks := append(makeChunks(1, "zeta"), makeChunks(1, "alpha")...)

	result := ix.Index(context.Background(), chunks)

	assert.Equal(t, []string{"alpha", "zeta"}, result.Chapters)
}

func TestReindexChapterDeletesFirst(t *testing.T) {
	store := &stubStore{deleteCount: 4}
	ix := New(store, &stubEmbedder{}, nil)

	result, err := ix.ReindexChapter(context.Background(), "ch1", makeChunks(2, "ch1"))

	require.NoError(t, err)
	assert.Equal(t, 1, store.deleteCalls)
	assert.Equal(t, "chapter_id", store.deletedField)
	assert.Equal(t, "ch1", store.deletedValue)
	assert.Equal(t, 2, result.IndexedChunks)
}

func TestReindexChapterDeleteError(t *testing.T) {
	store := &stubStore{deleteErr: errors.New("pg down")}
	ix := New(store, &stubEmbedder{}, nil)

	_, err := ix.ReindexChapter(context.Background(), "ch1", makeChunks(2, "ch1"))

	require.Error(t, err)
	assert.Empty(t, store.upserts)
}

func TestDeleteChapter(t *testing.T) {
	store := &stubStore{deleteCount: 7}
	ix := New(store, &stubEmbedder{}, nil)

	deleted, err := ix.DeleteChapter(context.Background(), "ch2")

	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.Equal(t, "ch2", store.deletedValue)
}
