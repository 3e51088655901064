package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/textbook-rag/retrieval"
)

type stubRetriever struct {
	result    *retrieval.Result
	err       error
	topK      int
	threshold float64
	chapterID string
}

func (s *stubRetriever) Retrieve(_ context.Context, rawQuery string, topK int, scoreThreshold float64) (*retrieval.Result, error) {
	s.topK = topK
	s.threshold = scoreThreshold
	if s.err != nil {
		return nil, s.err
	}
	if s.result == nil {
		return &retrieval.Result{Query: rawQuery}, nil
	}
	return s.result, nil
}

func (s *stubRetriever) RetrieveByChapter(ctx context.Context, rawQuery, chapterID string, topK int, scoreThreshold float64) (*retrieval.Result, error) {
	s.chapterID = chapterID
	return s.Retrieve(ctx, rawQuery, topK, scoreThreshold)
}

func TestServiceProcess(t *testing.T) {
	retriever := &stubRetriever{
		result: retrievalResult(chunk("a", "ch1", "Sensors", "Sensor content.", 0.9)),
	}
	chat := &stubChat{answer: "grounded answer"}
	svc := NewService(retriever, NewGenerator(chat, nil, nil), nil)

	resp, err := svc.Process(context.Background(), Request{
		Query:          "how do sensors work?",
		TopK:           7,
		ScoreThreshold: 0.6,
	})

	require.NoError(t, err)
	assert.Equal(t, 7, retriever.topK)
	assert.Equal(t, 0.6, retriever.threshold)
	assert.Equal(t, "grounded answer", resp.Answer)
	assert.False(t, resp.IsFallback)
	assert.Equal(t, "how do sensors work?", resp.Query)
	require.Len(t, resp.Sources, 1)
}

func TestServiceProcessFallback(t *testing.T) {
	retriever := &stubRetriever{result: retrievalResult()}
	chat := &stubChat{answer: "fallback answer"}
	svc := NewService(retriever, NewGenerator(chat, nil, nil), nil)

	resp, err := svc.Process(context.Background(), Request{Query: "off topic"})

	require.NoError(t, err)
	assert.True(t, resp.IsFallback)
	assert.Empty(t, resp.Sources)
}

func TestServiceProcessChapterScoped(t *testing.T) {
	retriever := &stubRetriever{
		result: retrievalResult(chunk("a", "ch2", "Vision", "Vision content.", 0.85)),
	}
	chat := &stubChat{answer: "scoped answer"}
	svc := NewService(retriever, NewGenerator(chat, nil, nil), nil)

	resp, err := svc.Process(context.Background(), Request{Query: "q", ChapterID: "ch2"})

	require.NoError(t, err)
	assert.Equal(t, "ch2", retriever.chapterID)
	assert.Equal(t, "scoped answer", resp.Answer)
}

func TestServiceProcessRetrieveError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("store down")}
	svc := NewService(retriever, NewGenerator(&stubChat{}, nil, nil), nil)

	_, err := svc.Process(context.Background(), Request{Query: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve")
}
