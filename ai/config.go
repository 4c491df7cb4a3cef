// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ScorerHost is the base URL for the scoring/decomposition service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	ScorerHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// ScorerModel is the model identifier to use for precise scoring and
	// query decomposition.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ScorerModel string

	// MaxBatchCases is the largest number of cases a single scorer call may
	// carry. Larger batches are rejected by the scorer client.
	// Default: 25
	MaxBatchCases int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithScorerHost sets the scorer service host URL.
func WithScorerHost(host string) ConfigOption {
	return func(c *Config) {
		c.ScorerHost = host
	}
}

// WithHost sets both embedding and scorer hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ScorerHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithScorerModel sets the scorer model identifier.
func WithScorerModel(model string) ConfigOption {
	return func(c *Config) {
		c.ScorerModel = model
	}
}

// WithMaxBatchCases sets the scorer batch size ceiling.
func WithMaxBatchCases(max int) ConfigOption {
	return func(c *Config) {
		c.MaxBatchCases = max
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. Both embedding and scorer use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost: defaultHost,
		ScorerHost:    defaultHost,
		EmbeddingModel: "embeddinggemma",
		ScorerModel:    "qwen2.5:3b",
		MaxBatchCases:  25,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.ScorerHost != "" && !strings.HasSuffix(c.ScorerHost, "/v1") {
		c.ScorerHost = strings.TrimSuffix(c.ScorerHost, "/")
		c.ScorerHost = c.ScorerHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ScorerHost == "" {
		return errors.New("ai config: ScorerHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ScorerModel == "" {
		return errors.New("ai config: ScorerModel is required")
	}
	if c.MaxBatchCases < 1 {
		return errors.New("ai config: MaxBatchCases must be at least 1")
	}
	return nil
}
