package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/domain"
	"github.com/aldermoor/braindex/internal/metrics"
)

// Generator produces completions via the OpenAI-compatible API. Responses are
// consumed whole; streaming is never requested.
type Generator struct {
	client *openai.Client
	logger *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := openai.CompletionRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}

	start := time.Now()

	resp, err := g.client.CreateCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		return "", parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	return resp.Choices[0].Text, nil
}

// ListModels returns the ids of all models the host serves.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	resp, err := g.client.ListModels(ctx)
	if err != nil {
		return nil, parseAPIError("model list", err, domain.ErrGenerationProviderError)
	}

	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
