package embeddings

import (
	"context"
	"fmt"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Batch caps. A batch is closed whenever adding the next text would exceed
// either the item count or the estimated token sum.
const (
	MaxBatchSize      = 100
	MaxTokensPerBatch = 8000
)

// Batches run sequentially; the limiter paces provider calls so backoff
// behavior stays predictable under the provider's rate limits.
const requestsPerSecond = 2

// embeddingAPI is the slice of the OpenAI client this package uses.
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type openAIEmbedder struct {
	api       embeddingAPI
	model     string
	dimension int
	limiter   *rate.Limiter
	retry     RetryPolicy
	logger    *log.Logger
}

func NewOpenAIEmbedder(opts Options) Embedder {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	retry := opts.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}

	return &openAIEmbedder{
		api:       openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		retry:     retry,
		logger:    logger,
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batches := createBatches(texts)
	results := make([]Result, 0, len(texts))

	for i, batch := range batches {
		e.logger.Printf("embedding batch %d/%d (%d texts)", i+1, len(batches), len(batch))

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := callWithRetry(ctx, e.retry, e.logger, func(ctx context.Context) (openai.EmbeddingResponse, error) {
			return e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Model: openai.EmbeddingModel(e.model),
				Input: batch,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d/%d: %w", i+1, len(batches), err)
		}

		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(batch), len(resp.Data))
		}

		// The API reports usage per batch, not per text; split it evenly.
		perTextTokens := resp.Usage.PromptTokens / len(batch)

		for j, text := range batch {
			vector := resp.Data[j].Embedding
			if e.dimension > 0 && len(vector) != e.dimension {
				return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(vector))
			}
			results = append(results, Result{
				Text:       text,
				Vector:     vector,
				TokenCount: perTextTokens,
			})
		}
	}

	return results, nil
}

// createBatches splits texts into provider batches, closing the current batch
// whenever the item cap is reached or the next text would push the estimated
// token sum past the batch limit. Input order is preserved.
func createBatches(texts []string) [][]string {
	var batches [][]string
	var current []string
	currentTokens := 0

	for _, text := range texts {
		estimated := estimateTokens(text)
		if len(current) >= MaxBatchSize || currentTokens+estimated > MaxTokensPerBatch {
			if len(current) > 0 {
				batches = append(batches, current)
			}
			current = nil
			currentTokens = 0
		}
		current = append(current, text)
		currentTokens += estimated
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// estimateTokens approximates token count at four characters per token, the
// same heuristic the chunker and context builder use.
func estimateTokens(text string) int {
	return len(text) / 4
}
