package chi

import (
	"time"

	"github.com/aldermoor/braindex/internal/domain"
)

type chatRequest struct {
	Question  string `json:"question"`
	Model     string `json:"model"`
	SessionID *int64 `json:"sessionId,omitempty"`
}

type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID int64  `json:"sessionId"`
}

type sessionResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type historyResponse struct {
	History []messageResponse `json:"history"`
}

type uploadResponse struct {
	Message    string `json:"message"`
	SourceFile string `json:"sourceFile"`
	Chunks     int    `json:"chunks"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

type pullRequest struct {
	Model string `json:"model"`
}

type pullResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sessionToDTO(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
}

func messageToDTO(m domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
