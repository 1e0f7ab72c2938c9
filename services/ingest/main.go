// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// The ingest binary loads documents from the configured source
// directory, chunks and embeds them, imports them into Weaviate, and
// moves finished files to the processed directory. Run it whenever new
// documents land; already-processed files are never revisited.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/url"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/nydas-ai/nydasbot/pkg/config"
	"github.com/nydas-ai/nydasbot/pkg/logging"
	"github.com/nydas-ai/nydasbot/services/backend/retrieval"
	"github.com/nydas-ai/nydasbot/services/llm"
)

func main() {
	configPath := flag.String("config", "parameters.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateIngestion(); err != nil {
		log.Fatalf("Config is not usable for ingestion: %v", err)
	}

	level, err := logging.ParseLevel(cfg.General.LoggingLevel)
	if err != nil {
		log.Fatalf("Invalid logging level: %v", err)
	}
	logger := logging.New(logging.Config{Level: level, Service: "nydasbot-ingest"})
	defer logger.Close()
	logger.SetDefault()

	rawURL := strings.Trim(cfg.RAG.VectorStorePath, "\"' ")
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("rag.vector_store_path %q is not a valid URL", rawURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}

	ctx := context.Background()
	if err := retrieval.EnsureSchema(ctx, client); err != nil {
		log.Fatalf("Failed to ensure Weaviate schema: %v", err)
	}

	embedder, err := llm.NewOllamaEmbedder(cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	slog.Info("Starting ingestion run",
		"source", cfg.RAG.SourceFileLocation,
		"processed", cfg.RAG.ProcessedFileLocation,
		"batch_size", cfg.LLM.BatchSize,
	)
	if err := runIngestion(ctx, client, embedder,
		cfg.RAG.SourceFileLocation, cfg.RAG.ProcessedFileLocation, cfg.LLM.BatchSize); err != nil {
		log.Fatalf("Ingestion run failed: %v", err)
	}
}
