package domain

import "errors"

var (
	// ErrSessionNotFound signals a sessionId that does not belong to any stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrEngineFailure is the single opaque failure the orchestrator exposes to callers
	// when any collaborator fails mid-turn. The already-logged user message stays persisted.
	ErrEngineFailure = errors.New("engine malfunctioned")
	// ErrEmptyDocument signals an ingestion request with no extractable text.
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrVectorDimMismatch signals a vector dimension mismatch between chunks.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
