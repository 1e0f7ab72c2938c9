// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTOML = `
[general]
logging_level = "info"
port = 8765

[llm]
model = "mistral"
embedding_model = "all-minilm"

[rag]
vector_store_path = "http://localhost:8080"
source_file_location = "/data/incoming"
processed_file_location = "/data/processed"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parameters.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.General.LoggingLevel)
	assert.Equal(t, 8765, cfg.General.Port)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, "all-minilm", cfg.LLM.EmbeddingModel)
	assert.Equal(t, "http://localhost:8080", cfg.RAG.VectorStorePath)

	// Defaults applied for keys the file omits.
	assert.Equal(t, "0.0.0.0", cfg.General.Host)
	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, time.Duration(0), cfg.RAG.SessionTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_NotTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "{not toml at all"))
	assert.Error(t, err)
}

// TestLoad_MissingRequiredKeys drops each required key in turn and expects
// Load to fail: misconfiguration must stop the process before it listens.
func TestLoad_MissingRequiredKeys(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no logging level", `
[general]
port = 8765
[llm]
model = "m"
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"no port", `
[general]
logging_level = "info"
[llm]
model = "m"
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"no model", `
[general]
logging_level = "info"
port = 8765
[llm]
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"no embedding model", `
[general]
logging_level = "info"
port = 8765
[llm]
model = "m"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"no vector store", `
[general]
logging_level = "info"
port = 8765
[llm]
model = "m"
embedding_model = "e"
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad level", `
[general]
logging_level = "loud"
port = 8765
[llm]
model = "m"
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"bad backend", `
[general]
logging_level = "info"
port = 8765
[llm]
backend = "carrier-pigeon"
model = "m"
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
`},
		{"negative ttl", `
[general]
logging_level = "info"
port = 8765
[llm]
model = "m"
embedding_model = "e"
[rag]
vector_store_path = "http://localhost:8080"
session_ttl = "-5m"
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SessionTTL(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML+`
session_ttl = "30m"
session_sweep_interval = "1m"
`))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.RAG.SessionTTL)
	assert.Equal(t, time.Minute, cfg.RAG.SessionSweepInterval)
}

func TestValidateIngestion(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateIngestion())

	cfg.RAG.SourceFileLocation = ""
	assert.Error(t, cfg.ValidateIngestion())
}
