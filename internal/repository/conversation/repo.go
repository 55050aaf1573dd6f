// Package conversation persists chat sessions and their ordered messages in Postgres.
package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldermoor/braindex/internal/domain"
)

// Repo implements the Conversation Store over a pgx connection pool.
// Every operation is a single statement; no cross-call transaction is offered,
// so concurrent turns on one session may interleave their message pairs.
// Message order within a session is defined by the BIGSERIAL id.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a conversation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// InitSchema creates the session tables if they do not exist. Message deletion
// cascades from session deletion.
func (r *Repo) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS session_messages (
			id BIGSERIAL PRIMARY KEY,
			session_id BIGINT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS session_messages_session_id_idx
			ON session_messages (session_id, id)`,
	}

	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Create inserts a new session with the given title.
func (r *Repo) Create(ctx context.Context, title string) (domain.Session, error) {
	var s domain.Session
	s.Title = title

	err := r.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (title) VALUES ($1) RETURNING id, created_at`,
		title,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// List returns all sessions, most recently created first.
func (r *Repo) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, created_at FROM chat_sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Exists reports whether a session id belongs to a stored session.
func (r *Repo) Exists(ctx context.Context, sessionID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM chat_sessions WHERE id = $1`, sessionID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return true, nil
}

// Delete removes a session; its messages go with it via the cascade FK.
func (r *Repo) Delete(ctx context.Context, sessionID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM chat_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// AppendMessage appends one message to a session and returns its id.
func (r *Repo) AppendMessage(
	ctx context.Context, sessionID int64, role domain.Role, content string,
) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO session_messages (session_id, role, content) VALUES ($1, $2, $3) RETURNING id`,
		sessionID, string(role), content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// Recent returns up to limit most recent messages of a session, newest first.
func (r *Repo) Recent(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM session_messages WHERE session_id = $1
		 ORDER BY id DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// History returns the full transcript of a session in chronological order.
func (r *Repo) History(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM session_messages WHERE session_id = $1
		 ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanSessions(rows pgx.Rows) ([]domain.Session, error) {
	var out []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
