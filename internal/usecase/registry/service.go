// Package registry manages the model catalog of the host: listing models
// available for chat and pulling new ones.
package registry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/logger"
)

// Service exposes the model catalog.
type Service struct {
	lister         modelLister
	puller         modelPuller
	embeddingModel string
}

// New creates the model registry service. embeddingModel is hidden from
// listings: it cannot chat, offering it would only produce broken turns.
func New(l modelLister, p modelPuller, embeddingModel string) *Service {
	return &Service{lister: l, puller: p, embeddingModel: embeddingModel}
}

// List returns chat-capable model ids, excluding the embedding model.
func (s *Service) List(ctx context.Context) ([]string, error) {
	ids, err := s.lister.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.isEmbeddingModel(id) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// Pull asks the host to download a model. Blocks until the host reports
// completion.
func (s *Service) Pull(ctx context.Context, model string) error {
	logger.FromContext(ctx).Info("pulling model", zap.String("model", model))

	if err := s.puller.Pull(ctx, model); err != nil {
		return fmt.Errorf("pull model: %w", err)
	}
	return nil
}

// isEmbeddingModel matches the configured embedding model with or without a
// tag suffix ("nomic-embed-text" matches "nomic-embed-text:latest").
func (s *Service) isEmbeddingModel(id string) bool {
	if id == s.embeddingModel {
		return true
	}
	return strings.HasPrefix(id, s.embeddingModel+":")
}
