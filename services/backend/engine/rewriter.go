// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/llm"
)

// contextualizePrompt instructs the model to resolve references like
// "it" or "that one" against the chat history without answering.
const contextualizePrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, formulate a standalone question " +
	"which can be understood without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

// QueryRewriter turns a follow-up question into a standalone one so the
// retriever gets a self-contained query.
type QueryRewriter struct {
	client llm.LLMClient
}

func NewQueryRewriter(client llm.LLMClient) *QueryRewriter {
	return &QueryRewriter{client: client}
}

// Rewrite returns the standalone form of input. With an empty history
// there is nothing to contextualize, so the input comes back unchanged
// without an LLM round trip.
func (r *QueryRewriter) Rewrite(ctx context.Context, history []datatypes.Message, input string) (string, error) {
	if len(history) == 0 {
		return input, nil
	}

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.SystemMessage(contextualizePrompt))
	messages = append(messages, history...)
	messages = append(messages, datatypes.HumanMessage(input))

	rewritten, err := r.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", err
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		slog.Warn("Query rewrite produced empty output, using original input")
		return input, nil
	}
	if rewritten != input {
		slog.Debug("Rewrote query", "original", input, "rewritten", rewritten)
	}
	return rewritten, nil
}
