package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/fabfab/textbook-rag/retrieval"
)

// Retriever is the slice of the retrieval layer the service needs.
type Retriever interface {
	Retrieve(ctx context.Context, rawQuery string, topK int, scoreThreshold float64) (*retrieval.Result, error)
	RetrieveByChapter(ctx context.Context, rawQuery, chapterID string, topK int, scoreThreshold float64) (*retrieval.Result, error)
}

// Request carries a user question through the pipeline. Zero TopK and
// ScoreThreshold take the retrieval defaults; a non-empty ChapterID scopes
// retrieval to that chapter.
type Request struct {
	Query          string
	SelectedText   string
	ChapterID      string
	TopK           int
	ScoreThreshold float64
}

// Response is the pipeline's answer with citations.
type Response struct {
	Answer       string   `json:"response"`
	Sources      []Source `json:"sources"`
	IsFallback   bool     `json:"is_fallback"`
	Query        string   `json:"query"`
	SelectedText string   `json:"selected_text,omitempty"`
}

// Service orchestrates retrieval and generation.
type Service struct {
	retriever Retriever
	generator *Generator
	logger    *log.Logger
}

func NewService(retriever Retriever, generator *Generator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Process retrieves content for the query and generates an answer.
func (s *Service) Process(ctx context.Context, req Request) (*Response, error) {
	var (
		result *retrieval.Result
		err    error
	)
	if req.ChapterID != "" {
		result, err = s.retriever.RetrieveByChapter(ctx, req.Query, req.ChapterID, req.TopK, req.ScoreThreshold)
	} else {
		result, err = s.retriever.Retrieve(ctx, req.Query, req.TopK, req.ScoreThreshold)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	s.logger.Printf("retrieved %d chunks for query", len(result.Chunks))

	generated, err := s.generator.Generate(ctx, req.Query, result, req.SelectedText)
	if err != nil {
		return nil, err
	}

	return &Response{
		Answer:       generated.Response,
		Sources:      generated.Sources,
		IsFallback:   generated.IsFallback,
		Query:        req.Query,
		SelectedText: req.SelectedText,
	}, nil
}
