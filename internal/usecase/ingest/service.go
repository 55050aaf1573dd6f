// Package ingest turns raw document text into embedded corpus chunks.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/domain"
	"github.com/aldermoor/braindex/internal/logger"
	"github.com/aldermoor/braindex/internal/metrics"
)

// Timeouts bounds the two external calls made per chunk.
type Timeouts struct {
	Embed time.Duration
	Store time.Duration
}

// Service runs the ingestion pipeline: split, embed, store.
type Service struct {
	splitter splitter
	embedder embedder
	writer   chunkWriter
	timeouts Timeouts
}

// New creates an ingestion service.
func New(s splitter, e embedder, w chunkWriter, t Timeouts) *Service {
	return &Service{splitter: s, embedder: e, writer: w, timeouts: t}
}

// Ingest splits the document, embeds every chunk and writes it to the corpus.
// Returns the number of chunks written. Processing is fail-fast: the first
// embed or write error aborts the run, chunks already written stay in the
// corpus (re-uploading the document is the recovery path).
func (s *Service) Ingest(ctx context.Context, sourceFile, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyDocument
	}

	log := logger.FromContext(ctx).With(zap.String("source_file", sourceFile))

	chunks := s.splitter.Split(text)
	log.Info("document split", zap.Int("chunks", len(chunks)))

	for i, chunkText := range chunks {
		vector, err := s.embed(ctx, chunkText)
		if err != nil {
			metrics.ChunksIngestedTotal.WithLabelValues("error").Inc()
			return i, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}

		chunk := domain.Chunk{
			SourceFile: sourceFile,
			Text:       chunkText,
			Vector:     vector,
		}
		if err := s.write(ctx, chunk); err != nil {
			metrics.ChunksIngestedTotal.WithLabelValues("error").Inc()
			return i, fmt.Errorf("store chunk %d/%d: %w", i+1, len(chunks), err)
		}

		metrics.ChunksIngestedTotal.WithLabelValues("success").Inc()
	}

	log.Info("document ingested", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

func (s *Service) write(ctx context.Context, chunk domain.Chunk) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()

	return s.writer.Insert(ctx, chunk)
}
