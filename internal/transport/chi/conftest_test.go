package chi

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/domain"
	chatuc "github.com/aldermoor/braindex/internal/usecase/chat"
)

type mockChat struct {
	answerFn   func(ctx context.Context, question, model string, sessionID *int64) (chatuc.Result, error)
	sessionsFn func(ctx context.Context) ([]domain.Session, error)
	historyFn  func(ctx context.Context, sessionID int64) ([]domain.Message, error)
	deleteFn   func(ctx context.Context, sessionID int64) error
}

func (m *mockChat) Answer(ctx context.Context, question, model string, sessionID *int64) (chatuc.Result, error) {
	return m.answerFn(ctx, question, model, sessionID)
}

func (m *mockChat) Sessions(ctx context.Context) ([]domain.Session, error) {
	return m.sessionsFn(ctx)
}

func (m *mockChat) History(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	return m.historyFn(ctx, sessionID)
}

func (m *mockChat) DeleteSession(ctx context.Context, sessionID int64) error {
	return m.deleteFn(ctx, sessionID)
}

type mockIngest struct {
	ingestFn func(ctx context.Context, sourceFile, text string) (int, error)
}

func (m *mockIngest) Ingest(ctx context.Context, sourceFile, text string) (int, error) {
	return m.ingestFn(ctx, sourceFile, text)
}

type mockRegistry struct {
	listFn func(ctx context.Context) ([]string, error)
	pullFn func(ctx context.Context, model string) error
}

func (m *mockRegistry) List(ctx context.Context) ([]string, error) {
	return m.listFn(ctx)
}

func (m *mockRegistry) Pull(ctx context.Context, model string) error {
	return m.pullFn(ctx, model)
}

// newTestRouter wires the server with mocks on a fresh chi router.
func newTestRouter(c *mockChat, i *mockIngest, reg *mockRegistry) http.Handler {
	if c.answerFn == nil {
		c.answerFn = func(_ context.Context, _, _ string, _ *int64) (chatuc.Result, error) {
			return chatuc.Result{Answer: "ok", SessionID: 1}, nil
		}
	}
	if c.sessionsFn == nil {
		c.sessionsFn = func(_ context.Context) ([]domain.Session, error) { return nil, nil }
	}
	if c.historyFn == nil {
		c.historyFn = func(_ context.Context, _ int64) ([]domain.Message, error) { return nil, nil }
	}
	if c.deleteFn == nil {
		c.deleteFn = func(_ context.Context, _ int64) error { return nil }
	}
	if i.ingestFn == nil {
		i.ingestFn = func(_ context.Context, _, _ string) (int, error) { return 1, nil }
	}
	if reg.listFn == nil {
		reg.listFn = func(_ context.Context) ([]string, error) { return nil, nil }
	}
	if reg.pullFn == nil {
		reg.pullFn = func(_ context.Context, _ string) error { return nil }
	}

	srv := NewServer(c, i, reg, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
