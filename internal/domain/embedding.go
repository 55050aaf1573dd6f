package domain

import "context"

// EmbeddingResult holds the vector produced for a text plus provider-reported token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// Embedder vectorizes text into a fixed-dimension embedding.
// Ingestion-time and query-time embeddings must come from the same model;
// mixing dimensions in one corpus is a configuration error.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces a full (non-streamed) completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
