// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// PassageClassName is the Weaviate class holding ingested document chunks.
const PassageClassName = "Passage"

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type. The target type T must have json tags matching the response shape.
//
// # Example
//
//	resp, err := client.GraphQL().Get().WithClassName("Passage").Do(ctx)
//	if err != nil { ... }
//	parsed, err := ParseGraphQLResponse[PassageQueryResponse](resp)
//
// # Limitations
//
//   - Type mismatches result in zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}

// PassageQueryResponse is the shape of a Get query against the Passage class.
type PassageQueryResponse struct {
	Get struct {
		Passage []PassageResult `json:"Passage"`
	} `json:"Get"`
}

// PassageResult is a single passage returned by a nearVector query.
type PassageResult struct {
	Content      string `json:"content"`
	Source       string `json:"source"`
	ParentSource string `json:"parent_source"`
	Page         *int   `json:"page"`
	IngestedAt   int64  `json:"ingested_at"`
	Additional   struct {
		ID        string   `json:"id"`
		Certainty *float32 `json:"certainty"`
	} `json:"_additional"`
}

// ToPassage converts a query result into the domain type.
func (r *PassageResult) ToPassage() Passage {
	p := Passage{
		Content:      r.Content,
		Source:       r.Source,
		ParentSource: r.ParentSource,
	}
	if r.Page != nil {
		p.Page = *r.Page
	}
	if r.Additional.Certainty != nil {
		p.Certainty = float64(*r.Additional.Certainty)
	}
	return p
}

// PassageProperties carries the fields written when ingesting a chunk.
type PassageProperties struct {
	Content      string `json:"content"`
	Source       string `json:"source"`
	ParentSource string `json:"parent_source"`
	Page         int    `json:"page"`
	IngestedAt   int64  `json:"ingested_at"`
}

// ToMap converts the properties to the map format Weaviate's batcher wants.
func (p *PassageProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content":       p.Content,
		"source":        p.Source,
		"parent_source": p.ParentSource,
		"page":          p.Page,
		"ingested_at":   p.IngestedAt,
	}
}
