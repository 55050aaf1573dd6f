package ingest

import (
	"context"
	"time"

	"github.com/aldermoor/braindex/internal/domain"
)

type mockSplitter struct {
	splitFn func(text string) []string
}

func (m *mockSplitter) Split(text string) []string {
	return m.splitFn(text)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockWriter struct {
	insertFn func(ctx context.Context, chunk domain.Chunk) error
}

func (m *mockWriter) Insert(ctx context.Context, chunk domain.Chunk) error {
	return m.insertFn(ctx, chunk)
}

func newTestService(sp *mockSplitter, e *mockEmbedder, w *mockWriter) *Service {
	if sp.splitFn == nil {
		sp.splitFn = func(text string) []string { return []string{text} }
	}
	if e.embedFn == nil {
		e.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
		}
	}
	if w.insertFn == nil {
		w.insertFn = func(_ context.Context, _ domain.Chunk) error { return nil }
	}
	return New(sp, e, w, Timeouts{Embed: time.Second, Store: time.Second})
}
