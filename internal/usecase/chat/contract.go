package chat

import (
	"context"

	"github.com/aldermoor/braindex/internal/domain"
)

// conversationStore persists sessions and their ordered messages.
type conversationStore interface {
	Create(ctx context.Context, title string) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Exists(ctx context.Context, sessionID int64) (bool, error)
	Delete(ctx context.Context, sessionID int64) error
	AppendMessage(ctx context.Context, sessionID int64, role domain.Role, content string) (int64, error)
	Recent(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error)
	History(ctx context.Context, sessionID int64) ([]domain.Message, error)
}

// chunkSearcher retrieves the nearest corpus chunks for a query vector.
type chunkSearcher interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)
}

// embedder vectorizes the question for retrieval.
type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// generator produces the full answer for the assembled prompt.
type generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
