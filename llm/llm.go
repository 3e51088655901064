// Package llm wraps the hosted chat model behind a single-completion client.
package llm

import (
	"context"
	"fmt"

	"github.com/fabfab/textbook-rag/config"
)

const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
)

// Client produces one completion from a system prompt and a user message.
// Failures are not retried here; callers surface them for a user-visible
// retry instead of delaying silently.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

type Options struct {
	Model   string
	APIKey  string
	BaseURL string

	MaxTokens   int
	Temperature float32
}

// NewClient builds the chat client for the configured provider. Gemini runs
// through its OpenAI-compatible endpoint.
func NewClient(cfg config.Settings) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderGemini:
		if cfg.ActiveAPIKey() == "" {
			return nil, fmt.Errorf("%s provider selected but no API key set", cfg.Provider)
		}
		return NewOpenAIClient(Options{
			Model:   cfg.ActiveChatModel(),
			APIKey:  cfg.ActiveAPIKey(),
			BaseURL: cfg.ActiveBaseURL(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
