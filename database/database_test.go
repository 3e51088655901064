package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStoreRequiresConnection(t *testing.T) {
	store := NewVectorStore(nil, "textbook_content")
	ctx := context.Background()

	_, err := store.CollectionExists(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, store.EnsureCollection(ctx, 1536), ErrNotConnected)
	assert.ErrorIs(t, store.Upsert(ctx, []Point{{ID: "x"}}), ErrNotConnected)

	_, err = store.Search(ctx, []float32{0.1}, 5, 0.5)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = store.DeleteByFilter(ctx, "chapter_id", "ch1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCacheStoreRequiresConnection(t *testing.T) {
	store := NewCacheStore(nil, "")
	ctx := context.Background()

	assert.ErrorIs(t, store.EnsureSchema(ctx), ErrNotConnected)

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, store.Put(ctx, "k", "v"), ErrNotConnected)
	assert.ErrorIs(t, store.Delete(ctx, "k"), ErrNotConnected)
}

func TestPayloadJSONShape(t *testing.T) {
	payload := Payload{
		ChapterID:    "ch1",
		Title:        "Chapter One",
		SectionTitle: "Overview",
		PageURL:      "https://example.com/ch1",
		Position:     2,
		TokenCount:   120,
		Content:      "body",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ch1", decoded["chapter_id"])
	assert.Equal(t, "Overview", decoded["section_title"])
	assert.Equal(t, "https://example.com/ch1", decoded["page_url"])
	assert.EqualValues(t, 2, decoded["position"])
}
