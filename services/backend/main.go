// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/nydas-ai/nydasbot/pkg/config"
	"github.com/nydas-ai/nydasbot/pkg/logging"
	"github.com/nydas-ai/nydasbot/services/backend/engine"
	"github.com/nydas-ai/nydasbot/services/backend/observability"
	"github.com/nydas-ai/nydasbot/services/backend/retrieval"
	"github.com/nydas-ai/nydasbot/services/backend/routes"
	"github.com/nydas-ai/nydasbot/services/backend/session"
	"github.com/nydas-ai/nydasbot/services/llm"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("nydasbot-backend")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func newWeaviateClient(rawURL string) (*weaviate.Client, error) {
	rawURL = strings.Trim(rawURL, "\"' ")
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("rag.vector_store_path %q is not a valid URL: %v", rawURL, err)
	}
	return weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
}

func newLLMClient(cfg config.LLMConfig) (llm.LLMClient, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient(cfg.Model)
	default:
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient(cfg.BaseURL, cfg.Model)
	}
}

func main() {
	configPath := flag.String("config", "parameters.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.General.LoggingLevel)
	if err != nil {
		log.Fatalf("Invalid logging level: %v", err)
	}
	logger := logging.New(logging.Config{Level: level, Service: "nydasbot-backend", JSON: true})
	defer logger.Close()
	logger.SetDefault()

	if cfg.Telemetry.OTLPEndpoint != "" {
		cleanup, err := initTracer(cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	weaviateClient, err := newWeaviateClient(cfg.RAG.VectorStorePath)
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}
	if err := retrieval.EnsureSchema(context.Background(), weaviateClient); err != nil {
		log.Fatalf("Failed to ensure Weaviate schema: %v", err)
	}

	llmClient, err := newLLMClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	embedder, err := llm.NewOllamaEmbedder(cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	store := session.NewStore(session.SystemClock())
	if cfg.RAG.SessionTTL > 0 {
		janitor, err := session.NewJanitor(store, cfg.RAG.SessionTTL, cfg.RAG.SessionSweepInterval)
		if err != nil {
			log.Fatalf("Failed to create session janitor: %v", err)
		}
		if err := janitor.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start session janitor: %v", err)
		}
		defer janitor.Stop()
	} else {
		slog.Info("Session TTL disabled, sessions live for the process lifetime")
	}

	metrics := observability.NewChatMetrics()
	eng := engine.NewConversationEngine(
		store,
		engine.NewQueryRewriter(llmClient),
		retrieval.NewRetriever(weaviateClient, embedder, cfg.RAG.TopK),
		engine.NewAnswerComposer(llmClient),
		metrics,
	)

	router := gin.Default()
	if cfg.Telemetry.OTLPEndpoint != "" {
		router.Use(otelgin.Middleware("nydasbot-backend"))
	}
	routes.SetupRoutes(router, eng, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.General.Host, cfg.General.Port)
	slog.Info("Starting the chat backend", "addr", addr, "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
