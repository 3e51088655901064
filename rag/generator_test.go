package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/textbook-rag/retrieval"
)

// stubChat records the prompts it was called with.
type stubChat struct {
	answer       string
	err          error
	systemPrompt string
	userMessage  string
}

func (s *stubChat) Complete(_ context.Context, systemPrompt, userMessage string) (string, error) {
	s.systemPrompt = systemPrompt
	s.userMessage = userMessage
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func retrievalResult(chunks ...retrieval.Chunk) *retrieval.Result {
	return &retrieval.Result{Chunks: chunks, TotalFound: len(chunks)}
}

func TestGenerateGrounded(t *testing.T) {
	chat := &stubChat{answer: "Robots use sensors [Source 1]."}
	g := NewGenerator(chat, nil, nil)
	result := retrievalResult(chunk("a", "ch1", "Sensors", "Sensor content.", 0.9))

	resp, err := g.Generate(context.Background(), "how do robots sense?", result, "")

	require.NoError(t, err)
	assert.False(t, resp.IsFallback)
	assert.Equal(t, "Robots use sensors [Source 1].", resp.Response)
	assert.Equal(t, "how do robots sense?", resp.Query)
	assert.Equal(t, systemPrompt, chat.systemPrompt)
	assert.Contains(t, chat.userMessage, "Sensor content.")
	assert.True(t, strings.HasSuffix(chat.userMessage, "User question: how do robots sense?"))
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "ch1", resp.Sources[0].ChapterID)
	assert.Equal(t, 0.9, resp.Sources[0].RelevanceScore)
}

func TestGenerateFallbackBelowThreshold(t *testing.T) {
	chat := &stubChat{answer: "I couldn't find that in the textbook."}
	g := NewGenerator(chat, nil, nil)
	result := retrievalResult(chunk("a", "ch1", "S", "weak match", 0.65))

	resp, err := g.Generate(context.Background(), "unrelated question", result, "")

	require.NoError(t, err)
	assert.True(t, resp.IsFallback)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, fallbackPrompt, chat.systemPrompt)
	assert.Equal(t, "User question: unrelated question", chat.userMessage)
}

func TestGenerateFallbackNoChunks(t *testing.T) {
	chat := &stubChat{answer: "fallback"}
	g := NewGenerator(chat, nil, nil)

	resp, err := g.Generate(context.Background(), "q", retrievalResult(), "")

	require.NoError(t, err)
	assert.True(t, resp.IsFallback)
}

func TestGenerateFallbackIncludesSelectedText(t *testing.T) {
	chat := &stubChat{answer: "fallback"}
	g := NewGenerator(chat, nil, nil)

	resp, err := g.Generate(context.Background(), "q", nil, "some selected text")

	require.NoError(t, err)
	assert.True(t, resp.IsFallback)
	assert.Equal(t, "User selected text: some selected text\n\nUser question: q", chat.userMessage)
	assert.Equal(t, "some selected text", resp.SelectedText)
}

func TestGenerateDedupesSources(t *testing.T) {
	chat := &stubChat{answer: "answer"}
	g := NewGenerator(chat, nil, nil)
	result := retrievalResult(
		chunk("a", "ch1", "Sensors", "first", 0.9),
		chunk("b", "ch1", "Sensors", "second", 0.8),
		chunk("c", "ch2", "Vision", "third", 0.75),
	)

	resp, err := g.Generate(context.Background(), "q", result, "")

	require.NoError(t, err)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, 0.9, resp.Sources[0].RelevanceScore)
	assert.Equal(t, "ch2", resp.Sources[1].ChapterID)
}

func TestGenerateSourcesOnlyFromIncludedChunks(t *testing.T) {
	chat := &stubChat{answer: "answer"}
	builder := NewContextBuilder(60, 10, nil)
	g := NewGenerator(chat, builder, nil)
	big := strings.Repeat("w", 150)
	result := retrievalResult(
		chunk("a", "ch1", "S", big, 0.9),
		chunk("b", "ch2", "S", big, 0.8),
	)

	resp, err := g.Generate(context.Background(), "q", result, "")

	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "ch1", resp.Sources[0].ChapterID)
}

func TestGenerateChatError(t *testing.T) {
	chat := &stubChat{err: errors.New("model unavailable")}
	g := NewGenerator(chat, nil, nil)
	result := retrievalResult(chunk("a", "ch1", "S", "content", 0.9))

	_, err := g.Generate(context.Background(), "q", result, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate response")
}

func TestHasRelevantResults(t *testing.T) {
	assert.False(t, hasRelevantResults(nil))
	assert.False(t, hasRelevantResults([]retrieval.Chunk{{Score: 0.69}}))
	assert.True(t, hasRelevantResults([]retrieval.Chunk{{Score: 0.3}, {Score: 0.7}}))
}
