// Package config loads application settings from environment variables.
package config

import (
	"os"
	"strconv"
)

// Supported LLM providers. Gemini is reached through its OpenAI-compatible
// endpoint, so both providers share the same client implementation.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	// Embedding dimensions differ per provider: text-embedding-3-small is
	// 1536-dimensional, Gemini's text-embedding-004 is 768.
	openAIVectorDimension = 1536
	geminiVectorDimension = 768
)

type Settings struct {
	PostgresDSN    string
	CollectionName string

	Provider string

	OpenAIAPIKey         string
	OpenAIEmbeddingModel string
	OpenAIChatModel      string

	GeminiAPIKey         string
	GeminiBaseURL        string
	GeminiEmbeddingModel string
	GeminiChatModel      string

	// VectorDimension overrides the provider default when set.
	VectorDimension int

	// Chunking parameters, in estimated tokens.
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int

	// Retrieval defaults.
	TopK           int
	ScoreThreshold float64

	// DocsBaseURL prefixes generated page URLs.
	DocsBaseURL string
}

func Load() Settings {
	return Settings{
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://localhost:5432/textbook-rag?sslmode=disable"),
		CollectionName: getEnv("COLLECTION_NAME", "textbook_content"),

		Provider: getEnv("LLM_PROVIDER", ProviderOpenAI),

		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", defaultGeminiBaseURL),
		GeminiEmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GeminiChatModel:      getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),

		VectorDimension: getEnvInt("VECTOR_DIMENSION", 0),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),

		TopK:           getEnvInt("RETRIEVAL_TOP_K", 5),
		ScoreThreshold: getEnvFloat("RETRIEVAL_SCORE_THRESHOLD", 0.5),

		DocsBaseURL: getEnv("DOCS_BASE_URL", ""),
	}
}

// ActiveAPIKey returns the API key for the configured provider.
func (s Settings) ActiveAPIKey() string {
	if s.Provider == ProviderGemini {
		return s.GeminiAPIKey
	}
	return s.OpenAIAPIKey
}

// ActiveBaseURL returns the API base URL for the configured provider.
// OpenAI uses the client default, signalled by an empty string.
func (s Settings) ActiveBaseURL() string {
	if s.Provider == ProviderGemini {
		return s.GeminiBaseURL
	}
	return ""
}

func (s Settings) ActiveEmbeddingModel() string {
	if s.Provider == ProviderGemini {
		return s.GeminiEmbeddingModel
	}
	return s.OpenAIEmbeddingModel
}

func (s Settings) ActiveChatModel() string {
	if s.Provider == ProviderGemini {
		return s.GeminiChatModel
	}
	return s.OpenAIChatModel
}

// ActiveVectorDimension returns the explicit override when set, otherwise the
// dimension of the configured provider's embedding model.
func (s Settings) ActiveVectorDimension() int {
	if s.VectorDimension > 0 {
		return s.VectorDimension
	}
	if s.Provider == ProviderGemini {
		return geminiVectorDimension
	}
	return openAIVectorDimension
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
