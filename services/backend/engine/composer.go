// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/llm"
)

// personaPrompt is the system instruction for answer generation. The
// retrieved passages are appended after the blank line. The length cap
// and the "don't know" fallback are enforced at the prompt level only.
const personaPrompt = "You are an assistant for question-answering tasks. " +
	"You are named 'NydasBot'. Use the following pieces of retrieved context to " +
	"answer the question. If you don't know the answer, just say that you don't know. " +
	"Use three sentences maximum and keep the answer concise.\n\n%s"

// AnswerComposer generates the final answer from retrieved context, the
// conversation so far, and the user's question.
type AnswerComposer struct {
	client llm.LLMClient
}

func NewAnswerComposer(client llm.LLMClient) *AnswerComposer {
	return &AnswerComposer{client: client}
}

// Compose runs one generation round trip. The final human turn carries
// the original input as the user typed it; the rewritten query is only
// used for retrieval and never reaches this prompt.
func (c *AnswerComposer) Compose(ctx context.Context, history []datatypes.Message,
	input string, passages []datatypes.Passage) (string, error) {

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.SystemMessage(fmt.Sprintf(personaPrompt, joinPassages(passages))))
	messages = append(messages, history...)
	messages = append(messages, datatypes.HumanMessage(input))

	answer, err := c.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// joinPassages concatenates passage texts in rank order, separated by
// blank lines, mirroring how retrieved documents are stuffed into a
// single context block.
func joinPassages(passages []datatypes.Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
