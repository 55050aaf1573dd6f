// Package chi exposes the HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/domain"
	"github.com/aldermoor/braindex/internal/extract"
	chatuc "github.com/aldermoor/braindex/internal/usecase/chat"
)

// maxUploadBytes bounds the multipart form kept in memory per upload.
const maxUploadBytes = 32 << 20

// chatService runs answer turns and serves session reads.
type chatService interface {
	Answer(ctx context.Context, question, model string, sessionID *int64) (chatuc.Result, error)
	Sessions(ctx context.Context) ([]domain.Session, error)
	History(ctx context.Context, sessionID int64) ([]domain.Message, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

// ingestService turns document text into corpus chunks.
type ingestService interface {
	Ingest(ctx context.Context, sourceFile, text string) (int, error)
}

// registryService manages the model catalog.
type registryService interface {
	List(ctx context.Context) ([]string, error)
	Pull(ctx context.Context, model string) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server carries the API handlers.
type Server struct {
	chat          chatService
	ingest        ingestService
	registry      registryService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chat chatService, ingest ingestService, registry registryService, logger *zap.Logger) *Server {
	s := &Server{
		chat:     chat,
		ingest:   ingest,
		registry: registry,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound,
			"session_not_found", "session not found"),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest,
			"empty_document", "document contains no text"),
		sentinelHandler(extract.ErrUnsupportedType, http.StatusBadRequest,
			"unsupported_document_type", "only .txt and .pdf documents are supported"),
		sentinelHandler(domain.ErrEngineFailure, http.StatusInternalServerError,
			"engine_failure", "the engine malfunctioned, please try again"),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/sessions", s.listSessions)
	r.Delete("/api/sessions/{sessionID}", s.deleteSession)
	r.Get("/api/history/{sessionID}", s.getHistory)
	r.Post("/api/chat", s.postChat)
	r.Post("/api/upload", s.postUpload)
	r.Get("/api/models", s.listModels)
	r.Post("/api/pull", s.postPull)
}

// listSessions handles GET /api/sessions.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chat.Sessions(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]sessionResponse, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionToDTO(sess)
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: items})
}

// deleteSession handles DELETE /api/sessions/{sessionID}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := s.chat.DeleteSession(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getHistory handles GET /api/history/{sessionID}.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	messages, err := s.chat.History(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]messageResponse, len(messages))
	for i, m := range messages {
		items[i] = messageToDTO(m)
	}
	writeJSON(w, http.StatusOK, historyResponse{History: items})
}

// postChat handles POST /api/chat.
func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is required")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "model is required")
		return
	}

	res, err := s.chat.Answer(r.Context(), req.Question, req.Model, req.SessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    res.Answer,
		SessionID: res.SessionID,
	})
}

// postUpload handles POST /api/upload. Expects a multipart form with the
// document under the "document" field.
func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", `multipart field "document" is required`)
		return
	}
	defer func() { _ = file.Close() }()

	text, err := extract.FromUpload(header.Filename, file)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	chunks, err := s.ingest.Ingest(r.Context(), header.Filename, text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:    "document uploaded and ingested successfully",
		SourceFile: header.Filename,
		Chunks:     chunks,
	})
}

// listModels handles GET /api/models.
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.registry.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

// postPull handles POST /api/pull.
func (s *Server) postPull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "model is required")
		return
	}

	if err := s.registry.Pull(r.Context(), req.Model); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pullResponse{Message: "model pulled successfully"})
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "session id must be an integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client always receives the fixed message, never the wrapped cause.
func sentinelHandler(sentinel error, status int, code, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
