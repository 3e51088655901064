// Package embeddings turns text into vectors through a hosted embedding
// model, with batching, pacing, and retry around the provider calls.
package embeddings

import (
	"context"
	"fmt"
	"log"

	"github.com/fabfab/textbook-rag/config"
)

// Result is one embedded text. TokenCount is an equal split of the batch's
// reported usage across batch members, an estimate rather than an exact
// per-text figure.
type Result struct {
	Text       string
	Vector     []float32
	TokenCount int
}

// Embedder generates embeddings for a list of texts, order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Result, error)
}

type Options struct {
	Model     string
	Dimension int

	APIKey  string
	BaseURL string

	Retry  RetryPolicy
	Logger *log.Logger
}

// NewEmbedder builds the embedder for the configured provider. Gemini runs
// through the same OpenAI-compatible client with a different base URL.
func NewEmbedder(cfg config.Settings, logger *log.Logger) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderGemini:
		if cfg.ActiveAPIKey() == "" {
			return nil, fmt.Errorf("%s provider selected but no API key set", cfg.Provider)
		}
		return NewOpenAIEmbedder(Options{
			Model:     cfg.ActiveEmbeddingModel(),
			Dimension: cfg.ActiveVectorDimension(),
			APIKey:    cfg.ActiveAPIKey(),
			BaseURL:   cfg.ActiveBaseURL(),
			Retry:     DefaultRetryPolicy(),
			Logger:    logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
