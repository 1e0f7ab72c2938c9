// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

// stubEmbedder returns a fixed vector or error for every call.
type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

func newTestClient(t *testing.T, srv *httptest.Server) *weaviate.Client {
	t.Helper()
	host := strings.TrimPrefix(srv.URL, "http://")
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: "http"})
	require.NoError(t, err)
	return client
}

func TestRetriever_Retrieve_MapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/graphql") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := map[string]any{
			"data": map[string]any{
				"Get": map[string]any{
					"Passage": []map[string]any{
						{
							"content":       "Refunds take 5 days.",
							"source":        "policy.pdf",
							"parent_source": "policy.pdf",
							"page":          3,
							"_additional":   map[string]any{"certainty": 0.91},
						},
						{
							"content":     "Contact support for refunds.",
							"source":      "faq.txt",
							"_additional": map[string]any{"certainty": 0.82},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	r := NewRetriever(newTestClient(t, srv), embedder, 4)

	passages, err := r.Retrieve(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, "Refunds take 5 days.", passages[0].Content)
	assert.Equal(t, "policy.pdf", passages[0].Source)
	assert.Equal(t, 3, passages[0].Page)
	assert.InDelta(t, 0.91, passages[0].Certainty, 0.001)

	assert.Equal(t, "faq.txt", passages[1].Source)
	assert.Equal(t, 0, passages[1].Page, "missing page defaults to zero")
	assert.Equal(t, 1, embedder.calls)
}

func TestRetriever_Retrieve_EmptyResultIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"Get": map[string]any{"Passage": []any{}}},
		})
	}))
	defer srv.Close()

	r := NewRetriever(newTestClient(t, srv), &stubEmbedder{vector: []float32{0.1}}, 4)
	passages, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestRetriever_Retrieve_GraphQLErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "class Passage not found"}},
		})
	}))
	defer srv.Close()

	r := NewRetriever(newTestClient(t, srv), &stubEmbedder{vector: []float32{0.1}}, 4)

	_, err := r.Retrieve(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, IsRetrievalError(err))
	assert.ErrorContains(t, err, "vector store query failed")
}

func TestRetriever_Retrieve_EmbedFailure(t *testing.T) {
	r := NewRetriever(nil, &stubEmbedder{err: errors.New("embedder down")}, 4)

	_, err := r.Retrieve(context.Background(), "query")
	require.Error(t, err)
	assert.True(t, IsRetrievalError(err))
	assert.ErrorContains(t, err, "failed to embed query")
}

func TestNewRetriever_TopKFallback(t *testing.T) {
	r := NewRetriever(nil, &stubEmbedder{}, 0)
	assert.Equal(t, 4, r.topK)
}

func TestParseGraphQLResponse(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]any{
				"Passage": []map[string]any{
					{"content": "c1", "source": "s1"},
				},
			},
		},
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.PassageQueryResponse](resp)
	require.NoError(t, err)
	require.Len(t, parsed.Get.Passage, 1)
	assert.Equal(t, "c1", parsed.Get.Passage[0].Content)

	_, err = datatypes.ParseGraphQLResponse[datatypes.PassageQueryResponse](nil)
	assert.Error(t, err)
}

func TestGetPassageSchema(t *testing.T) {
	class := GetPassageSchema()
	assert.Equal(t, datatypes.PassageClassName, class.Class)
	assert.Equal(t, "none", class.Vectorizer, "vectors are supplied client-side")

	names := make([]string, 0, len(class.Properties))
	for _, p := range class.Properties {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"content", "source", "parent_source", "page", "ingested_at"}, names)
}
