// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

// GetPassageSchema returns the class definition for ingested chunks.
// Vectorizer is "none": vectors are computed client-side so the query
// and ingest paths share one embedding model.
func GetPassageSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       datatypes.PassageClassName,
		Description: "A chunk of an ingested document with its source metadata.",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexNullState: true,
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The chunk text.",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "File the chunk was extracted from.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "parent_source",
				DataType:        []string{"text"},
				Description:     "Original document when the source is a derived file.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:        "page",
				DataType:    []string{"int"},
				Description: "Page number within the source document, 0 when unknown.",
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"int"},
				Description:     "Unix milliseconds when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the Passage class if it does not already exist.
// Called at startup by both the chat backend and the ingestion job.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	class := GetPassageSchema()
	slog.Info("Checking schema", "class", class.Class)

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
