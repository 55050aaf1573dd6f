package ingest

import (
	"context"

	"github.com/aldermoor/braindex/internal/domain"
)

// splitter cuts document text into overlapping chunks.
type splitter interface {
	Split(text string) []string
}

// embedder vectorizes chunk text.
type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// chunkWriter persists embedded chunks into the corpus.
type chunkWriter interface {
	Insert(ctx context.Context, chunk domain.Chunk) error
}
