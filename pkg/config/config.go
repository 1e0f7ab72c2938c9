// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads the NydasBot configuration from parameters.toml.
//
// The file keeps the section layout the service has always used:
// [general] for process-level settings, [llm] for model selection, and
// [rag] for the vector store and ingestion directories. A missing or
// malformed required key is a startup failure; nothing in this package is
// reloaded at runtime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the backend and ingestion binaries.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains process-level settings.
type GeneralConfig struct {
	LoggingLevel string `mapstructure:"logging_level"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
}

// LLMConfig selects the chat and embedding backends.
type LLMConfig struct {
	// Backend is "ollama" or "openai". Defaults to "ollama".
	Backend        string `mapstructure:"backend"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
	// Device and BatchSize are resource hints for the ingestion path only.
	Device    string `mapstructure:"device"`
	BatchSize int    `mapstructure:"batch_size"`
}

// RAGConfig contains vector store and ingestion settings.
type RAGConfig struct {
	// VectorStorePath holds the Weaviate endpoint (scheme://host:port).
	// The key name predates the move from an embedded store to a service.
	VectorStorePath       string `mapstructure:"vector_store_path"`
	TopK                  int    `mapstructure:"top_k"`
	SourceFileLocation    string `mapstructure:"source_file_location"`
	ProcessedFileLocation string `mapstructure:"processed_file_location"`

	// SessionTTL evicts sessions idle for longer than this duration.
	// Zero disables eviction, which is the default: histories grow
	// unbounded unless an operator opts in.
	SessionTTL          time.Duration `mapstructure:"session_ttl"`
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_interval"`
}

// TelemetryConfig controls the OTLP trace exporter.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC collector address. Empty disables tracing.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("general.host", "0.0.0.0")
	v.SetDefault("llm.backend", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.batch_size", 32)
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.session_sweep_interval", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the keys every binary needs. Ingestion-only keys are
// checked by ValidateIngestion so the backend can run without them.
func (c *Config) Validate() error {
	switch strings.ToLower(c.General.LoggingLevel) {
	case "debug", "info", "warn", "warning", "error":
	case "":
		return fmt.Errorf("general.logging_level is required")
	default:
		return fmt.Errorf("general.logging_level %q is not one of debug, info, warn, error", c.General.LoggingLevel)
	}
	if c.General.Port <= 0 || c.General.Port > 65535 {
		return fmt.Errorf("general.port must be in (0, 65535], got %d", c.General.Port)
	}
	switch c.LLM.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("llm.backend %q is not one of ollama, openai", c.LLM.Backend)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.EmbeddingModel == "" {
		return fmt.Errorf("llm.embedding_model is required")
	}
	if c.RAG.VectorStorePath == "" {
		return fmt.Errorf("rag.vector_store_path is required")
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.SessionTTL < 0 {
		return fmt.Errorf("rag.session_ttl must not be negative")
	}
	if c.RAG.SessionTTL > 0 && c.RAG.SessionSweepInterval <= 0 {
		return fmt.Errorf("rag.session_sweep_interval must be positive when rag.session_ttl is set")
	}
	return nil
}

// ValidateIngestion checks the extra keys the ingestion binary requires.
func (c *Config) ValidateIngestion() error {
	if c.RAG.SourceFileLocation == "" {
		return fmt.Errorf("rag.source_file_location is required for ingestion")
	}
	if c.RAG.ProcessedFileLocation == "" {
		return fmt.Errorf("rag.processed_file_location is required for ingestion")
	}
	if c.LLM.BatchSize <= 0 {
		return fmt.Errorf("llm.batch_size must be positive, got %d", c.LLM.BatchSize)
	}
	return nil
}
