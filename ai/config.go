// Copyright 2025 Optim Finance
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
	// Host is the base URL for the OpenAI-compatible service API.
	// Example: "http://localhost:11434/v1" for a local server.
	Host string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// AnswerModel is the model identifier to use for answer generation.
	// Example: "mistral-small", "gpt-4o-mini"
	AnswerModel string

	// ContactEmail is included in degraded responses so a failed answer
	// still points the user somewhere useful.
	ContactEmail string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAnswerModel sets the answer generation model identifier.
func WithAnswerModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnswerModel = model
	}
}

// WithContactEmail sets the support contact for degraded responses.
func WithContactEmail(email string) ConfigOption {
	return func(c *Config) {
		c.ContactEmail = email
	}
}

// DefaultConfig returns a Config with defaults suitable for a local
// OpenAI-compatible server, modified by the given options.
func DefaultConfig(opts ...ConfigOption) *Config {
	c := &Config{
		Host:           "http://localhost:11434/v1",
		EmbeddingModel: "all-minilm",
		AnswerModel:    "mistral-small",
		ContactEmail:   "contact@optim-finance.com",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	// ErrHostRequired is returned when the service host is missing.
	ErrHostRequired = errors.New("service host required")

	// ErrEmbeddingModelRequired is returned when the embedding model is missing.
	ErrEmbeddingModelRequired = errors.New("embedding model required")

	// ErrAnswerModelRequired is returned when the answer model is missing.
	ErrAnswerModelRequired = errors.New("answer model required")
)

// Validate checks and normalizes the configuration.
func (c *Config) Validate() error {
	c.Host = strings.TrimSpace(c.Host)
	c.EmbeddingModel = strings.TrimSpace(c.EmbeddingModel)
	c.AnswerModel = strings.TrimSpace(c.AnswerModel)

	if c.Host == "" {
		return ErrHostRequired
	}
	if c.EmbeddingModel == "" {
		return ErrEmbeddingModelRequired
	}
	if c.AnswerModel == "" {
		return ErrAnswerModelRequired
	}
	return nil
}
