package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aldermoor/braindex/internal/domain"
	chatuc "github.com/aldermoor/braindex/internal/usecase/chat"
)

func TestPostChat_NewSession(t *testing.T) {
	c := &mockChat{answerFn: func(_ context.Context, question, model string, sessionID *int64) (chatuc.Result, error) {
		if question != "what is up?" || model != "llama3" {
			t.Errorf("unexpected args: %q %q", question, model)
		}
		if sessionID != nil {
			t.Errorf("expected nil session id, got %d", *sessionID)
		}
		return chatuc.Result{Answer: "the sky", SessionID: 5}, nil
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question":"what is up?","model":"llama3"}`))
	rec := do(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "the sky" || resp.SessionID != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestPostChat_ExistingSession(t *testing.T) {
	var got *int64
	c := &mockChat{answerFn: func(_ context.Context, _, _ string, sessionID *int64) (chatuc.Result, error) {
		got = sessionID
		return chatuc.Result{Answer: "ok", SessionID: 7}, nil
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question":"more?","model":"llama3","sessionId":7}`))
	rec := do(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got == nil || *got != 7 {
		t.Errorf("session id not forwarded: %v", got)
	}
}

func TestPostChat_ValidationErrors(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	for _, body := range []string{
		`{"model":"llama3"}`,
		`{"question":"hi"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		if rec := do(h, req); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestPostChat_UnknownSession(t *testing.T) {
	c := &mockChat{answerFn: func(_ context.Context, _, _ string, _ *int64) (chatuc.Result, error) {
		return chatuc.Result{}, domain.ErrSessionNotFound
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question":"hi","model":"llama3","sessionId":404}`))
	rec := do(h, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPostChat_EngineFailureIsOpaque(t *testing.T) {
	c := &mockChat{answerFn: func(_ context.Context, _, _ string, _ *int64) (chatuc.Result, error) {
		return chatuc.Result{}, domain.ErrEngineFailure
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question":"hi","model":"llama3"}`))
	rec := do(h, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "engine_failure" {
		t.Errorf("unexpected code %q", resp.Code)
	}
	if strings.Contains(resp.Message, "provider") {
		t.Errorf("message leaks internals: %q", resp.Message)
	}
}

func TestListSessions(t *testing.T) {
	c := &mockChat{sessionsFn: func(_ context.Context) ([]domain.Session, error) {
		return []domain.Session{
			{ID: 2, Title: "newer", CreatedAt: time.Unix(200, 0).UTC()},
			{ID: 1, Title: "older", CreatedAt: time.Unix(100, 0).UTC()},
		}, nil
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp sessionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sessions) != 2 || resp.Sessions[0].ID != 2 || resp.Sessions[1].Title != "older" {
		t.Errorf("unexpected sessions: %+v", resp.Sessions)
	}
}

func TestListSessions_EnvelopeShape(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("response is not an object: %v", err)
	}
	if _, ok := raw["sessions"]; !ok {
		t.Errorf(`response lacks the "sessions" envelope: %s`, rec.Body.String())
	}
}

func TestGetHistory(t *testing.T) {
	c := &mockChat{historyFn: func(_ context.Context, sessionID int64) ([]domain.Message, error) {
		if sessionID != 3 {
			t.Errorf("expected session 3, got %d", sessionID)
		}
		return []domain.Message{
			{ID: 1, Role: domain.RoleUser, Content: "q"},
			{ID: 2, Role: domain.RoleAssistant, Content: "a"},
		}, nil
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/history/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.History) != 2 || resp.History[0].Role != "user" || resp.History[1].Content != "a" {
		t.Errorf("unexpected history: %+v", resp.History)
	}
}

func TestGetHistory_EnvelopeShape(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/history/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("response is not an object: %v", err)
	}
	if _, ok := raw["history"]; !ok {
		t.Errorf(`response lacks the "history" envelope: %s`, rec.Body.String())
	}
}

func TestGetHistory_BadID(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/history/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetHistory_NotFound(t *testing.T) {
	c := &mockChat{historyFn: func(_ context.Context, _ int64) ([]domain.Message, error) {
		return nil, domain.ErrSessionNotFound
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/history/404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	var got int64
	c := &mockChat{deleteFn: func(_ context.Context, sessionID int64) error {
		got = sessionID
		return nil
	}}

	h := newTestRouter(c, &mockIngest{}, &mockRegistry{})

	rec := do(h, httptest.NewRequest(http.MethodDelete, "/api/sessions/9", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got != 9 {
		t.Errorf("deleted %d", got)
	}
}

func TestPostUpload_Text(t *testing.T) {
	var gotSource, gotText string
	i := &mockIngest{ingestFn: func(_ context.Context, sourceFile, text string) (int, error) {
		gotSource, gotText = sourceFile, text
		return 3, nil
	}}

	h := newTestRouter(&mockChat{}, i, &mockRegistry{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("document", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("some document text")); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if gotSource != "notes.txt" || gotText != "some document text" {
		t.Errorf("unexpected ingest args: %q %q", gotSource, gotText)
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Chunks != 3 {
		t.Errorf("expected 3 chunks, got %d", resp.Chunks)
	}
	if resp.Message == "" {
		t.Error(`upload response must carry a "message" field`)
	}
}

func TestPostUpload_UnsupportedType(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("document", "image.png")
	_, _ = fw.Write([]byte{0x89, 0x50})
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPostUpload_MissingField(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListModels(t *testing.T) {
	reg := &mockRegistry{listFn: func(_ context.Context) ([]string, error) {
		return []string{"llama3:latest", "mistral:7b"}, nil
	}}

	h := newTestRouter(&mockChat{}, &mockIngest{}, reg)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp modelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Models) != 2 || resp.Models[0] != "llama3:latest" {
		t.Errorf("unexpected models: %v", resp.Models)
	}
}

func TestPostPull(t *testing.T) {
	var got string
	reg := &mockRegistry{pullFn: func(_ context.Context, model string) error {
		got = model
		return nil
	}}

	h := newTestRouter(&mockChat{}, &mockIngest{}, reg)

	req := httptest.NewRequest(http.MethodPost, "/api/pull",
		strings.NewReader(`{"model":"mistral:7b"}`))
	rec := do(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got != "mistral:7b" {
		t.Errorf("pulled %q", got)
	}

	var resp pullResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message == "" {
		t.Error(`pull response must carry a "message" field`)
	}
}

func TestPostPull_MissingModel(t *testing.T) {
	h := newTestRouter(&mockChat{}, &mockIngest{}, &mockRegistry{})

	req := httptest.NewRequest(http.MethodPost, "/api/pull", strings.NewReader(`{}`))
	if rec := do(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
