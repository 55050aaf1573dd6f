package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/aldermoor/braindex/internal/domain"
)

func TestIngest_WritesEveryChunk(t *testing.T) {
	sp := &mockSplitter{splitFn: func(_ string) []string {
		return []string{"one", "two", "three"}
	}}
	e := &mockEmbedder{}

	var written []domain.Chunk
	w := &mockWriter{insertFn: func(_ context.Context, c domain.Chunk) error {
		written = append(written, c)
		return nil
	}}

	svc := newTestService(sp, e, w)

	n, err := svc.Ingest(context.Background(), "notes.txt", "one two three")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks written, got %d", n)
	}
	for i, c := range written {
		if c.SourceFile != "notes.txt" {
			t.Errorf("chunk %d: source file %q", i, c.SourceFile)
		}
		if len(c.Vector) == 0 {
			t.Errorf("chunk %d written without a vector", i)
		}
	}
	if written[1].Text != "two" {
		t.Errorf("chunk order lost: %q", written[1].Text)
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	svc := newTestService(&mockSplitter{}, &mockEmbedder{}, &mockWriter{})

	_, err := svc.Ingest(context.Background(), "blank.txt", "   \n\t ")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestIngest_EmbedFailureKeepsEarlierChunks(t *testing.T) {
	sp := &mockSplitter{splitFn: func(_ string) []string {
		return []string{"a", "b", "c"}
	}}

	calls := 0
	e := &mockEmbedder{embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		calls++
		if calls == 3 {
			return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
		}
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}}

	inserted := 0
	w := &mockWriter{insertFn: func(_ context.Context, _ domain.Chunk) error {
		inserted++
		return nil
	}}

	svc := newTestService(sp, e, w)

	n, err := svc.Ingest(context.Background(), "doc.txt", "abc")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if n != 2 || inserted != 2 {
		t.Errorf("expected the two successful chunks to stay, got n=%d inserted=%d", n, inserted)
	}
}

func TestIngest_WriteFailureAborts(t *testing.T) {
	sp := &mockSplitter{splitFn: func(_ string) []string {
		return []string{"a", "b"}
	}}

	wantErr := errors.New("store down")
	w := &mockWriter{insertFn: func(_ context.Context, _ domain.Chunk) error {
		return wantErr
	}}

	svc := newTestService(sp, &mockEmbedder{}, w)

	n, err := svc.Ingest(context.Background(), "doc.txt", "ab")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected zero chunks reported, got %d", n)
	}
}
