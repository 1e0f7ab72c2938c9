// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package retrieval performs nearVector search over the Passage class.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/llm"
)

var tracer = otel.Tracer("nydasbot.backend.retrieval")

// RetrievalError wraps failures from the embedding or vector store layer
// so the engine can report them distinctly from generation failures.
type RetrievalError struct {
	Message string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval error: %s", e.Message)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsRetrievalError checks if an error is a RetrievalError.
func IsRetrievalError(err error) bool {
	_, ok := err.(*RetrievalError)
	return ok
}

// Retriever embeds queries and fetches the most similar passages.
//
// # Thread Safety
//
// Safe for concurrent use. The Weaviate client handles connection
// pooling internally.
type Retriever struct {
	client   *weaviate.Client
	embedder llm.EmbeddingProvider
	topK     int
}

// NewRetriever builds a Retriever. topK values below 1 fall back to 4.
func NewRetriever(client *weaviate.Client, embedder llm.EmbeddingProvider, topK int) *Retriever {
	if topK < 1 {
		slog.Warn("Invalid topK, using default", "provided", topK, "default", 4)
		topK = 4
	}
	return &Retriever{
		client:   client,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve embeds the query and returns up to topK passages ordered by
// similarity, highest certainty first. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]datatypes.Passage, error) {
	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", r.topK))

	slog.Debug("Retrieving passages", "top_k", r.topK)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Error("Failed to embed query", "error", err)
		return nil, &RetrievalError{Message: "failed to embed query", Err: err}
	}

	nearVector := r.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	// Certainty is requested instead of distance so scores are always
	// in [0, 1] regardless of the configured distance metric.
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "parent_source"},
		{Name: "page"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(datatypes.PassageClassName).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(r.topK).
		Do(ctx)
	if err != nil {
		slog.Error("Weaviate nearVector search failed", "error", err)
		return nil, &RetrievalError{Message: "vector store query failed", Err: err}
	}
	// GraphQL-level failures come back in-band with a nil transport error.
	if len(result.Errors) > 0 {
		err := fmt.Errorf("graphql: %s", result.Errors[0].Message)
		slog.Error("Weaviate nearVector search failed", "error", err)
		return nil, &RetrievalError{Message: "vector store query failed", Err: err}
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.PassageQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse search results", "error", err)
		return nil, &RetrievalError{Message: "failed to parse vector store response", Err: err}
	}

	passages := make([]datatypes.Passage, 0, len(parsed.Get.Passage))
	for _, res := range parsed.Get.Passage {
		passages = append(passages, res.ToPassage())
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(passages)))
	slog.Debug("Retrieved passages", "count", len(passages))
	return passages, nil
}
