// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/go-openapi/strfmt"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
	"golang.org/x/sync/errgroup"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/llm"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// chunk is one splitter output plus the page it came from (0 for
// formats without page structure).
type chunk struct {
	Text string
	Page int
}

// loadAndSplit reads one source file and splits it into chunks. PDFs go
// through the PDF loader so page metadata survives; everything else is
// treated as plain text.
func loadAndSplit(ctx context.Context, path string) ([]chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	var loader documentloaders.Loader
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		loader = documentloaders.NewPDF(f, info.Size())
	} else {
		loader = documentloaders.NewText(f)
	}

	docs, err := loader.LoadAndSplit(ctx, splitter)
	if err != nil {
		return nil, fmt.Errorf("failed to load and split %s: %w", path, err)
	}

	chunks := make([]chunk, 0, len(docs))
	for _, doc := range docs {
		c := chunk{Text: doc.PageContent}
		if page, ok := doc.Metadata["page"].(int); ok {
			c.Page = page
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// embedChunks computes a vector per chunk, fanning out up to batchSize
// concurrent embedding calls. Output order matches input order.
func embedChunks(ctx context.Context, embedder llm.EmbeddingProvider, chunks []chunk, batchSize int) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	vectors := make([][]float32, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i, c := range chunks {
		g.Go(func() error {
			vec, err := embedder.Embed(ctx, c.Text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// chunkUUID derives a deterministic Weaviate id from the chunk text, so
// re-ingesting the same content overwrites instead of duplicating.
func chunkUUID(text string) strfmt.UUID {
	hash := sha256.Sum256([]byte(text))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

// persistChunks batch-imports the chunks into the Passage class and
// returns how many landed successfully.
func persistChunks(ctx context.Context, client *weaviate.Client, source string,
	chunks []chunk, vectors [][]float32) (int, error) {

	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("mismatched chunk and vector counts: %d vs %d", len(chunks), len(vectors))
	}

	now := time.Now().UnixMilli()
	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		props := datatypes.PassageProperties{
			Content:      c.Text,
			Source:       fmt.Sprintf("%s_part_%d", source, i+1),
			ParentSource: source,
			Page:         c.Page,
			IngestedAt:   now,
		}
		objects[i] = &models.Object{
			Class:      datatypes.PassageClassName,
			ID:         chunkUUID(c.Text),
			Vector:     vectors[i],
			Properties: props.ToMap(),
		}
	}

	resp, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	created := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			created++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "source", source, "error", errItem.Message)
			}
		} else {
			slog.Warn("Failed Weaviate batch item, no error provided", "source", source)
		}
	}
	return created, nil
}

// moveToProcessed relocates an ingested file out of the source
// directory so reruns skip it.
func moveToProcessed(path, processedDir string) error {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	dest := filepath.Join(processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", path, dest, err)
	}
	return nil
}

// ingestFile runs the full pipeline for one file: load, split, embed,
// persist, move.
func ingestFile(ctx context.Context, client *weaviate.Client, embedder llm.EmbeddingProvider,
	path, processedDir string, batchSize int) (int, error) {

	chunks, err := loadAndSplit(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		// Leave the file in the source directory; an operator can fix
		// or remove it before the next run.
		return 0, fmt.Errorf("no text extracted from %s", path)
	}
	slog.Info("Split document into chunks", "path", path, "chunk_count", len(chunks))

	vectors, err := embedChunks(ctx, embedder, chunks, batchSize)
	if err != nil {
		return 0, err
	}

	created, err := persistChunks(ctx, client, filepath.Base(path), chunks, vectors)
	if err != nil {
		return 0, err
	}

	if err := moveToProcessed(path, processedDir); err != nil {
		return created, err
	}
	return created, nil
}

// runIngestion walks the source directory and ingests each regular
// file. Per-file failures are logged and skipped; the file stays in the
// source directory for the next run.
func runIngestion(ctx context.Context, client *weaviate.Client, embedder llm.EmbeddingProvider,
	sourceDir, processedDir string, batchSize int) error {

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory %s: %w", sourceDir, err)
	}

	processed, skipped, totalChunks := 0, 0, 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(sourceDir, entry.Name())

		created, err := ingestFile(ctx, client, embedder, path, processedDir, batchSize)
		if err != nil {
			slog.Error("Failed to ingest file, skipping", "path", path, "error", err)
			skipped++
			continue
		}
		processed++
		totalChunks += created
		slog.Info("Ingested file", "path", path, "chunks", created)
	}

	slog.Info("Ingestion run complete",
		"processed", processed,
		"skipped", skipped,
		"chunks", totalChunks,
	)
	return nil
}
