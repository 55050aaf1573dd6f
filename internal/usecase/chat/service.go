// Package chat orchestrates one question/answer turn over the corpus.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/domain"
	"github.com/aldermoor/braindex/internal/logger"
)

// Timeouts bounds each external call of a turn. A slow model host must not
// hold a store connection, and vice versa.
type Timeouts struct {
	Embed    time.Duration
	Generate time.Duration
	Store    time.Duration
}

// Options tunes retrieval and history assembly.
type Options struct {
	TopK         int
	HistoryLimit int
	Timeouts     Timeouts
}

// Result is the outcome of one completed turn.
type Result struct {
	Answer    string
	SessionID int64
}

// Service runs the retrieval-augmented answer flow.
type Service struct {
	store    conversationStore
	searcher chunkSearcher
	embedder embedder
	gen      generator
	template Template
	opts     Options
}

// New creates the chat orchestrator.
func New(
	store conversationStore,
	searcher chunkSearcher,
	e embedder,
	g generator,
	tpl Template,
	opts Options,
) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 1
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 6
	}
	return &Service{
		store:    store,
		searcher: searcher,
		embedder: e,
		gen:      g,
		template: tpl,
		opts:     opts,
	}
}

// Answer runs one turn: resolve the session, log the question, retrieve
// context, assemble the prompt, generate and log the answer.
//
// The question is persisted before any model call. If anything after that
// fails the turn returns domain.ErrEngineFailure and the question stays in
// the transcript; the next turn sees it as history.
func (s *Service) Answer(ctx context.Context, question, model string, sessionID *int64) (Result, error) {
	log := logger.FromContext(ctx).With(zap.String("model", model))

	sid, err := s.resolveSession(ctx, question, sessionID)
	if err != nil {
		return Result{}, err
	}
	log = log.With(zap.Int64("session_id", sid))

	if _, err := s.appendMessage(ctx, sid, domain.RoleUser, question); err != nil {
		log.Error("failed to log question", zap.Error(err))
		return Result{}, fmt.Errorf("log question: %w", domain.ErrEngineFailure)
	}

	contextText, err := s.retrieve(ctx, question)
	if err != nil {
		log.Error("retrieval failed", zap.Error(err))
		return Result{}, fmt.Errorf("retrieve context: %w", domain.ErrEngineFailure)
	}

	history, err := s.history(ctx, sid, question)
	if err != nil {
		log.Error("history load failed", zap.Error(err))
		return Result{}, fmt.Errorf("load history: %w", domain.ErrEngineFailure)
	}

	prompt := s.template.Render(contextText, history, question)

	answer, err := s.generate(ctx, model, prompt)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return Result{}, fmt.Errorf("generate answer: %w", domain.ErrEngineFailure)
	}

	if _, err := s.appendMessage(ctx, sid, domain.RoleAssistant, answer); err != nil {
		log.Error("failed to log answer", zap.Error(err))
		return Result{}, fmt.Errorf("log answer: %w", domain.ErrEngineFailure)
	}

	log.Info("turn completed",
		zap.Int("history_messages", len(history)),
		zap.Int("answer_chars", len(answer)))

	return Result{Answer: answer, SessionID: sid}, nil
}

// Sessions lists all stored sessions, newest first.
func (s *Service) Sessions(ctx context.Context) ([]domain.Session, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.List(ctx)
}

// History returns the full transcript of one session in chronological order.
func (s *Service) History(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	ok, err := s.store.Exists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.store.History(ctx, sessionID)
}

// DeleteSession removes a session and its transcript.
func (s *Service) DeleteSession(ctx context.Context, sessionID int64) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.Delete(ctx, sessionID)
}

// resolveSession validates an existing session id or creates a new session
// titled from the question.
func (s *Service) resolveSession(ctx context.Context, question string, sessionID *int64) (int64, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if sessionID != nil {
		ok, err := s.store.Exists(ctx, *sessionID)
		if err != nil {
			return 0, fmt.Errorf("check session: %w", domain.ErrEngineFailure)
		}
		if !ok {
			return 0, domain.ErrSessionNotFound
		}
		return *sessionID, nil
	}

	session, err := s.store.Create(ctx, domain.TitleFromQuestion(question))
	if err != nil {
		return 0, fmt.Errorf("create session: %w", domain.ErrEngineFailure)
	}
	return session.ID, nil
}

// retrieve embeds the question and fetches the nearest chunks. An empty
// corpus is not an error; the prompt carries the no-context marker instead.
func (s *Service) retrieve(ctx context.Context, question string) (string, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.opts.Timeouts.Embed)
	defer cancel()

	res, err := s.embedder.Embed(embedCtx, question)
	if err != nil {
		return "", err
	}

	searchCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	hits, err := s.searcher.Nearest(searchCtx, res.Embedding, s.opts.TopK)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	return strings.Join(texts, "\n\n"), nil
}

// history loads the most recent messages, restores chronological order and
// drops copies of the current question (the eagerly logged one included).
func (s *Service) history(ctx context.Context, sessionID int64, question string) ([]domain.Message, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	recent, err := s.store.Recent(ctx, sessionID, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}

	// Recent returns newest first; the prompt wants oldest first.
	out := make([]domain.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Content == question {
			continue
		}
		out = append(out, recent[i])
	}
	return out, nil
}

func (s *Service) generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeouts.Generate)
	defer cancel()
	return s.gen.Generate(ctx, model, prompt)
}

func (s *Service) appendMessage(ctx context.Context, sessionID int64, role domain.Role, content string) (int64, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.AppendMessage(ctx, sessionID, role, content)
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeouts.Store)
}
