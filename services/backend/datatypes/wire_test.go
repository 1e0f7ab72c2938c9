// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_Validate(t *testing.T) {
	valid := ChatRequest{SessionId: "s1", Input: "What is the refund policy?"}
	assert.NoError(t, valid.Validate())

	noSession := ChatRequest{Input: "hello"}
	assert.NoError(t, noSession.Validate(), "session_id is optional")

	noInput := ChatRequest{SessionId: "s1"}
	assert.Error(t, noInput.Validate(), "input is required")

	oversized := ChatRequest{Input: strings.Repeat("a", MaxInputBytes+1)}
	assert.Error(t, oversized.Validate())
}

func TestChatRequest_EnsureSessionId(t *testing.T) {
	r := ChatRequest{Input: "hi"}
	assert.Equal(t, DefaultSessionID, r.EnsureSessionId())
	assert.Equal(t, DefaultSessionID, r.SessionId)

	r2 := ChatRequest{SessionId: "s1", Input: "hi"}
	assert.Equal(t, "s1", r2.EnsureSessionId())
}

// TestChatResponse_ExactlyOneVariant verifies the wire invariant: a
// response carries either "answer" or "error", never both, never neither.
func TestChatResponse_ExactlyOneVariant(t *testing.T) {
	out, err := json.Marshal(AnswerResponse("42"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"42"}`, string(out))

	out, err = json.Marshal(ErrorResponse(errors.New("store unavailable")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"store unavailable"}`, string(out))

	// Empty answers still serialize as the success variant.
	out, err = json.Marshal(AnswerResponse(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":""}`, string(out))
}

func TestChatResponse_Unmarshal(t *testing.T) {
	var r ChatResponse
	require.NoError(t, json.Unmarshal([]byte(`{"answer":"hi"}`), &r))
	assert.Equal(t, "hi", r.Answer)
	assert.Empty(t, r.Error)

	var e ChatResponse
	require.NoError(t, json.Unmarshal([]byte(`{"error":"boom"}`), &e))
	assert.Equal(t, "boom", e.Error)
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: "system", Content: "a"}, SystemMessage("a"))
	assert.Equal(t, Message{Role: "human", Content: "b"}, HumanMessage("b"))
	assert.Equal(t, Message{Role: "assistant", Content: "c"}, AssistantMessage("c"))
}
