package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/fabfab/textbook-rag/retrieval"
)

// MinRelevanceThreshold is the score at least one retrieved chunk must reach
// for the answer to be grounded; below it the generator falls back.
const MinRelevanceThreshold = 0.7

// ChatClient is the slice of the LLM client the generator needs.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Source is a citation attached to a generated response.
type Source struct {
	ChapterID      string  `json:"chapter_id"`
	Title          string  `json:"title"`
	SectionTitle   string  `json:"section_title"`
	PageURL        string  `json:"page_url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// GeneratedResponse is the outcome of one generation.
type GeneratedResponse struct {
	Response     string   `json:"response"`
	Sources      []Source `json:"sources"`
	IsFallback   bool     `json:"is_fallback"`
	Query        string   `json:"query"`
	SelectedText string   `json:"selected_text,omitempty"`
}

// Generator produces answers from retrieved content, falling back to a
// topic-suggestion response when nothing relevant was found.
type Generator struct {
	chat    ChatClient
	builder *ContextBuilder
	logger  *log.Logger
}

func NewGenerator(chat ChatClient, builder *ContextBuilder, logger *log.Logger) *Generator {
	if builder == nil {
		builder = NewContextBuilder(0, 0, logger)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{chat: chat, builder: builder, logger: logger}
}

// Generate answers the query from the retrieval result. If no chunk clears
// the relevance threshold it produces a fallback response with no sources.
func (g *Generator) Generate(ctx context.Context, query string, result *retrieval.Result, selectedText string) (*GeneratedResponse, error) {
	if result == nil || !hasRelevantResults(result.Chunks) {
		return g.generateFallback(ctx, query, selectedText)
	}

	built := g.builder.Build(result.Chunks, selectedText)

	userMessage := fmt.Sprintf("%s\n\nUser question: %s", built.Text, query)
	answer, err := g.chat.Complete(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	return &GeneratedResponse{
		Response:     answer,
		Sources:      extractSources(built.ChunksUsed),
		IsFallback:   false,
		Query:        query,
		SelectedText: selectedText,
	}, nil
}

func (g *Generator) generateFallback(ctx context.Context, query, selectedText string) (*GeneratedResponse, error) {
	g.logger.Printf("no relevant content found, generating fallback response")

	userMessage := fmt.Sprintf("User question: %s", query)
	if selectedText != "" {
		userMessage = fmt.Sprintf("User selected text: %s\n\n%s", selectedText, userMessage)
	}

	answer, err := g.chat.Complete(ctx, fallbackPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("generate fallback response: %w", err)
	}

	return &GeneratedResponse{
		Response:     answer,
		Sources:      []Source{},
		IsFallback:   true,
		Query:        query,
		SelectedText: selectedText,
	}, nil
}

func hasRelevantResults(chunks []retrieval.Chunk) bool {
	for _, chunk := range chunks {
		if chunk.Score >= MinRelevanceThreshold {
			return true
		}
	}
	return false
}

// extractSources dedupes citations by chapter and section, keeping the first
// (highest scoring) occurrence.
func extractSources(chunks []retrieval.Chunk) []Source {
	seen := make(map[string]struct{})
	sources := make([]Source, 0, len(chunks))

	for _, chunk := range chunks {
		key := chunk.ChapterID + ":" + chunk.SectionTitle
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		sources = append(sources, Source{
			ChapterID:      chunk.ChapterID,
			Title:          chunk.Title,
			SectionTitle:   chunk.SectionTitle,
			PageURL:        chunk.PageURL,
			RelevanceScore: chunk.Score,
		})
	}

	return sources
}
