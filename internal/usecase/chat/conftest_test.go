package chat

import (
	"context"
	"time"

	"github.com/aldermoor/braindex/internal/domain"
)

type mockStore struct {
	createFn  func(ctx context.Context, title string) (domain.Session, error)
	listFn    func(ctx context.Context) ([]domain.Session, error)
	existsFn  func(ctx context.Context, sessionID int64) (bool, error)
	deleteFn  func(ctx context.Context, sessionID int64) error
	appendFn  func(ctx context.Context, sessionID int64, role domain.Role, content string) (int64, error)
	recentFn  func(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error)
	historyFn func(ctx context.Context, sessionID int64) ([]domain.Message, error)
}

func (m *mockStore) Create(ctx context.Context, title string) (domain.Session, error) {
	return m.createFn(ctx, title)
}

func (m *mockStore) List(ctx context.Context) ([]domain.Session, error) {
	return m.listFn(ctx)
}

func (m *mockStore) Exists(ctx context.Context, sessionID int64) (bool, error) {
	return m.existsFn(ctx, sessionID)
}

func (m *mockStore) Delete(ctx context.Context, sessionID int64) error {
	return m.deleteFn(ctx, sessionID)
}

func (m *mockStore) AppendMessage(ctx context.Context, sessionID int64, role domain.Role, content string) (int64, error) {
	return m.appendFn(ctx, sessionID, role, content)
}

func (m *mockStore) Recent(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error) {
	return m.recentFn(ctx, sessionID, limit)
}

func (m *mockStore) History(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	return m.historyFn(ctx, sessionID)
}

type mockSearcher struct {
	nearestFn func(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)
}

func (m *mockSearcher) Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	return m.nearestFn(ctx, vector, k)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, model, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	return m.generateFn(ctx, model, prompt)
}

// newTestService wires mocks with benign defaults; tests override the fields
// they care about.
func newTestService(st *mockStore, se *mockSearcher, e *mockEmbedder, g *mockGenerator) *Service {
	if st.createFn == nil {
		st.createFn = func(_ context.Context, title string) (domain.Session, error) {
			return domain.Session{ID: 1, Title: title}, nil
		}
	}
	if st.existsFn == nil {
		st.existsFn = func(_ context.Context, _ int64) (bool, error) { return true, nil }
	}
	if st.appendFn == nil {
		st.appendFn = func(_ context.Context, _ int64, _ domain.Role, _ string) (int64, error) {
			return 1, nil
		}
	}
	if st.recentFn == nil {
		st.recentFn = func(_ context.Context, _ int64, _ int) ([]domain.Message, error) {
			return nil, nil
		}
	}
	if se.nearestFn == nil {
		se.nearestFn = func(_ context.Context, _ []float32, _ int) ([]domain.RetrievedChunk, error) {
			return nil, nil
		}
	}
	if e.embedFn == nil {
		e.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
		}
	}
	if g.generateFn == nil {
		g.generateFn = func(_ context.Context, _, _ string) (string, error) {
			return "an answer", nil
		}
	}

	return New(st, se, e, g, NewTemplate(""), Options{
		TopK:         1,
		HistoryLimit: 6,
		Timeouts: Timeouts{
			Embed:    time.Second,
			Generate: time.Second,
			Store:    time.Second,
		},
	})
}

func int64Ptr(v int64) *int64 { return &v }
