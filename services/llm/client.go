// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package llm

import (
	"context"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

// GenerationParams carries optional sampling knobs. A nil field means
// "use the backend default"; the deterministic RAG paths pin temperature
// to zero explicitly rather than relying on those defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient is the standard interface for any chat-capable backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}

// EmbeddingProvider turns text into a dense vector for nearVector search.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Float32Ptr is a convenience for populating GenerationParams literals.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr is a convenience for populating GenerationParams literals.
func IntPtr(v int) *int { return &v }
