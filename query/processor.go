// Package query normalizes user questions, expands them with domain
// synonyms, and turns them into embeddings for retrieval.
package query

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/fabfab/textbook-rag/embeddings"
)

// maxExpansionTerms caps how many synonym expansions join the embedded text;
// more than a few just adds noise to the vector.
const maxExpansionTerms = 3

var punctuationPattern = regexp.MustCompile(`[^\w\s?-]`)

// ProcessedQuery is a query after normalization, expansion, and embedding.
type ProcessedQuery struct {
	OriginalQuery  string
	ProcessedQuery string
	ExpandedTerms  []string
	Embedding      []float32
}

// Processor prepares user queries for vector search.
type Processor struct {
	embedder        embeddings.Embedder
	enableExpansion bool
	logger          *log.Logger
}

func NewProcessor(embedder embeddings.Embedder, enableExpansion bool, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		embedder:        embedder,
		enableExpansion: enableExpansion,
		logger:          logger,
	}
}

// Preprocess lowercases the query, strips punctuation except question marks
// and hyphens, and collapses whitespace.
func (p *Processor) Preprocess(raw string) string {
	processed := strings.Join(strings.Fields(raw), " ")
	processed = strings.ToLower(processed)
	processed = punctuationPattern.ReplaceAllString(processed, " ")
	return strings.Join(strings.Fields(processed), " ")
}

// Expand returns domain synonyms for the meaningful words of a preprocessed
// query, in word order, skipping synonyms the query already contains.
func (p *Processor) Expand(processed string) []string {
	if !p.enableExpansion {
		return nil
	}

	queryLower := strings.ToLower(processed)
	seen := make(map[string]struct{})
	var expanded []string

	for _, word := range strings.Fields(queryLower) {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}

		if _, stop := stopWords[word]; stop {
			continue
		}

		for _, synonym := range domainSynonyms[word] {
			if strings.Contains(queryLower, strings.ToLower(synonym)) {
				continue
			}
			expanded = append(expanded, synonym)
		}
	}

	return expanded
}

// BuildEmbeddingText joins the processed query with the leading expansions.
func (p *Processor) BuildEmbeddingText(processed string, expanded []string) string {
	if len(expanded) == 0 {
		return processed
	}
	if len(expanded) > maxExpansionTerms {
		expanded = expanded[:maxExpansionTerms]
	}
	return processed + " " + strings.Join(expanded, " ")
}

// Process runs the full pipeline: normalize, expand, and embed.
func (p *Processor) Process(ctx context.Context, raw string) (*ProcessedQuery, error) {
	processed := p.Preprocess(raw)
	expanded := p.Expand(processed)
	embeddingText := p.BuildEmbeddingText(processed, expanded)

	results, err := p.embedder.Embed(ctx, []string{embeddingText})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("embed query: empty result")
	}

	p.logger.Printf("processed query with %d expansions", len(expanded))
	return &ProcessedQuery{
		OriginalQuery:  raw,
		ProcessedQuery: processed,
		ExpandedTerms:  expanded,
		Embedding:      results[0].Vector,
	}, nil
}
