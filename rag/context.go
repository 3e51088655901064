// Package rag assembles retrieved content into prompts and generates
// grounded answers with source citations.
package rag

import (
	"fmt"
	"log"
	"strings"

	"github.com/fabfab/textbook-rag/retrieval"
)

// Context assembly limits. The token budget is conservative so the prompt
// leaves room for the model's answer.
const (
	DefaultContextMaxTokens = 4000
	DefaultContextMaxChunks = 10
)

const contextHeader = "Relevant content from the textbook:\n\n"

// BuiltContext is the assembled prompt context plus bookkeeping about what
// made it in.
type BuiltContext struct {
	Text          string
	ChunksUsed    []retrieval.Chunk
	TokenEstimate int
	Truncated     bool
}

// ContextBuilder packs retrieved chunks into a bounded context block.
type ContextBuilder struct {
	maxTokens int
	maxChunks int
	logger    *log.Logger
}

// NewContextBuilder builds a context builder; non-positive limits fall back
// to defaults.
func NewContextBuilder(maxTokens, maxChunks int, logger *log.Logger) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = DefaultContextMaxTokens
	}
	if maxChunks <= 0 {
		maxChunks = DefaultContextMaxChunks
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ContextBuilder{maxTokens: maxTokens, maxChunks: maxChunks, logger: logger}
}

// Build assembles chunks, highest relevance first, into a context block.
// Selected text is included ahead of retrieved content and never counts
// against the chunk cap. Assembly stops at the first chunk that would
// overflow the token budget.
func (b *ContextBuilder) Build(chunks []retrieval.Chunk, selectedText string) BuiltContext {
	if len(chunks) == 0 {
		return BuiltContext{}
	}

	var parts []string
	var used []retrieval.Chunk
	tokens := 0
	truncated := false

	if selectedText != "" {
		selected := fmt.Sprintf("[User Selected Text]\n%s\n\n", selectedText)
		parts = append(parts, selected)
		tokens += estimateTokens(selected)
	}

	parts = append(parts, contextHeader)
	tokens += estimateTokens(contextHeader)

	for _, chunk := range chunks {
		if len(used) >= b.maxChunks {
			truncated = true
			break
		}

		formatted := formatChunk(chunk, len(used)+1)
		chunkTokens := estimateTokens(formatted)
		if tokens+chunkTokens > b.maxTokens {
			truncated = true
			break
		}

		parts = append(parts, formatted)
		used = append(used, chunk)
		tokens += chunkTokens
	}

	b.logger.Printf("built context with %d chunks, ~%d tokens, truncated=%t",
		len(used), tokens, truncated)
	return BuiltContext{
		Text:          strings.Join(parts, "\n"),
		ChunksUsed:    used,
		TokenEstimate: tokens,
		Truncated:     truncated,
	}
}

// BuildWithPriority moves chunks of the given chapter ahead of the rest,
// preserving score order within each group, then builds as usual.
func (b *ContextBuilder) BuildWithPriority(chunks []retrieval.Chunk, priorityChapterID, selectedText string) BuiltContext {
	if priorityChapterID == "" {
		return b.Build(chunks, selectedText)
	}

	reordered := make([]retrieval.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.ChapterID == priorityChapterID {
			reordered = append(reordered, chunk)
		}
	}
	for _, chunk := range chunks {
		if chunk.ChapterID != priorityChapterID {
			reordered = append(reordered, chunk)
		}
	}
	return b.Build(reordered, selectedText)
}

func formatChunk(chunk retrieval.Chunk, index int) string {
	return fmt.Sprintf("[Source %d: %s - %s]\n%s\n", index, chunk.Title, chunk.SectionTitle, chunk.Content)
}

func estimateTokens(text string) int {
	return len(text) / 4
}
