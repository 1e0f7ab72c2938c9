// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

func TestNewOllamaClient_Validation(t *testing.T) {
	_, err := NewOllamaClient("", "llama3")
	assert.Error(t, err)

	_, err = NewOllamaClient("http://localhost:11434", "")
	assert.Error(t, err)

	c, err := NewOllamaClient("http://localhost:11434/", "llama3")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", c.baseURL, "trailing slash is trimmed")
}

func TestOllamaClient_Chat(t *testing.T) {
	var captured ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaChatMessage{Role: "assistant", Content: "The sky is blue."},
			Done:    true,
		})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "llama3")
	require.NoError(t, err)

	messages := []datatypes.Message{
		datatypes.SystemMessage("You are terse."),
		datatypes.HumanMessage("What color is the sky?"),
	}
	answer, err := client.Chat(context.Background(), messages, GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role, "human role maps to user on the wire")
	assert.False(t, captured.Stream)
	assert.Equal(t, float64(0), captured.Options["temperature"], "unset temperature defaults to zero")
}

func TestOllamaClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "ok", Done: true})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "llama3")
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "say ok", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestOllamaClient_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'missing' not found"}`))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "missing")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull missing")
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "llama3")
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), []datatypes.Message{datatypes.HumanMessage("hi")}, GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestBuildOptions(t *testing.T) {
	opts := buildOptions(GenerationParams{
		Temperature: Float32Ptr(0.7),
		TopK:        IntPtr(20),
		MaxTokens:   IntPtr(256),
		Stop:        []string{"\n"},
	})
	assert.Equal(t, float32(0.7), opts["temperature"])
	assert.Equal(t, 20, opts["top_k"])
	assert.Equal(t, 256, opts["num_predict"])
	assert.Equal(t, []string{"\n"}, opts["stop"])
	_, ok := opts["top_p"]
	assert.False(t, ok, "unset knobs are omitted")
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	emb, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), "some passage")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbedder_EmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{})
	}))
	defer srv.Close()

	emb, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), "text")
	assert.Error(t, err)
}
