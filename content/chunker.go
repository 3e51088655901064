package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Default chunking parameters, expressed in estimated tokens.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultMinChunkSize = 100
)

// chunkNamespace seeds deterministic chunk IDs so that re-parsing unchanged
// content yields the same IDs and upserts replace rather than duplicate.
var chunkNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

var paragraphSplitPattern = regexp.MustCompile(`\n\n+`)

// Chunk is one indexable unit of content.
type Chunk struct {
	ID         string
	Content    string
	Metadata   Metadata
	Position   int
	TokenCount int
}

// Chunker splits parsed documents into chunks sized for embedding.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	minChunkSize int
}

// NewChunker builds a chunker; non-positive parameters fall back to defaults.
func NewChunker(chunkSize, chunkOverlap, minChunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		minChunkSize: minChunkSize,
	}
}

// EstimateTokens approximates the token count of a text at four characters
// per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Chunk splits a parsed document section by section. Positions are monotonic
// within the chapter and only advance for chunks that clear the minimum size
// floor, so IDs stay stable when trailing fragments are dropped.
func (c *Chunker) Chunk(parsed *Parsed) []Chunk {
	var chunks []Chunk
	position := 0

	for _, section := range parsed.Sections {
		meta := parsed.Metadata
		meta.SectionTitle = section.Heading

		for _, piece := range c.splitText(section.Body) {
			tokens := EstimateTokens(piece)
			if tokens < c.minChunkSize {
				continue
			}

			chunks = append(chunks, Chunk{
				ID:         chunkID(meta.ChapterID, section.Heading, position),
				Content:    piece,
				Metadata:   meta,
				Position:   position,
				TokenCount: tokens,
			})
			position++
		}
	}

	return chunks
}

// splitText packs paragraphs greedily into chunks up to the token budget,
// seeding each new chunk with trailing paragraphs of the previous one for
// overlap. Paragraphs larger than the budget are split on sentence
// boundaries without overlap.
func (c *Chunker) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= c.chunkSize {
		return []string{text}
	}

	var pieces []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, "\n\n"))

		// Re-seed with trailing paragraphs that fit the overlap budget.
		var seed []string
		seedTokens := 0
		for i := len(current) - 1; i >= 0; i-- {
			tokens := EstimateTokens(current[i])
			if seedTokens+tokens > c.chunkOverlap {
				break
			}
			seed = append([]string{current[i]}, seed...)
			seedTokens += tokens
		}
		current = seed
		currentTokens = seedTokens
	}

	for _, para := range paragraphSplitPattern.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		tokens := EstimateTokens(para)
		if tokens > c.chunkSize {
			if len(current) > 0 {
				pieces = append(pieces, strings.Join(current, "\n\n"))
				current = nil
				currentTokens = 0
			}
			pieces = append(pieces, c.splitLargeParagraph(para)...)
			continue
		}

		if currentTokens+tokens > c.chunkSize {
			flush()
		}
		current = append(current, para)
		currentTokens += tokens
	}

	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, "\n\n"))
	}

	return pieces
}

// splitLargeParagraph breaks an oversized paragraph on sentence boundaries.
func (c *Chunker) splitLargeParagraph(para string) []string {
	var pieces []string
	var current []string
	currentTokens := 0

	for _, sentence := range splitSentences(para) {
		tokens := EstimateTokens(sentence)
		if currentTokens+tokens > c.chunkSize && len(current) > 0 {
			pieces = append(pieces, strings.Join(current, " "))
			current = nil
			currentTokens = 0
		}
		current = append(current, sentence)
		currentTokens += tokens
	}

	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, " "))
	}

	return pieces
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
		}
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// chunkID derives a stable UUID from the chunk's logical coordinates.
func chunkID(chapterID, sectionTitle string, position int) string {
	name := fmt.Sprintf("%s:%s:%d", chapterID, sectionTitle, position)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
