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


// Package config holds the process configuration for the knowledge base.
//
// The configuration is an explicit struct constructed once at process start,
// validated in one place, and injected into each component constructor.
// Configuration errors fail fast at startup, never at request time.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is the root of all configuration validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the knowledge base.
type Config struct {
	// DataDir is the directory holding the persistent chunk collection.
	DataDir string `yaml:"data_dir"`

	Search   SearchConfig   `yaml:"search"`
	Chunking ChunkingConfig `yaml:"chunking"`
	AI       AIConfig       `yaml:"ai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SearchConfig holds retrieval configuration.
type SearchConfig struct {
	// TopK is the default number of results returned by a search.
	TopK int `yaml:"top_k"`

	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// result. Candidates below it are excluded, not down-ranked.
	SimilarityThreshold float32 `yaml:"similarity_threshold"`

	// SemanticWeight is the hybrid fusion weight given to the semantic
	// channel; the keyword channel gets 1 - SemanticWeight.
	SemanticWeight float32 `yaml:"semantic_weight"`
}

// ChunkProfile is an operating window for the chunker.
type ChunkProfile struct {
	// Size is the target chunk size in characters.
	Size int `yaml:"size"`

	// Overlap is the number of trailing characters carried into the next
	// chunk. Must be strictly less than Size.
	Overlap int `yaml:"overlap"`
}

// ChunkingConfig holds chunker configuration.
type ChunkingConfig struct {
	// MaxKeywords bounds the number of keywords extracted per chunk.
	MaxKeywords int `yaml:"max_keywords"`

	// Profiles maps a content type to its chunking window. Short FAQ-style
	// content uses smaller windows than long technical documents.
	Profiles map[string]ChunkProfile `yaml:"profiles"`

	// DefaultProfile names the profile used when no profile matches.
	DefaultProfile string `yaml:"default_profile"`
}

// ProfileFor returns the chunking window for a content type, falling back to
// the default profile for unknown types.
func (c ChunkingConfig) ProfileFor(contentType string) ChunkProfile {
	if p, ok := c.Profiles[contentType]; ok {
		return p
	}
	return c.Profiles[c.DefaultProfile]
}

// AIConfig holds the hosted AI service configuration.
type AIConfig struct {
	// Host is the base URL of the OpenAI-compatible service.
	Host string `yaml:"host"`

	// EmbeddingModel is the model identifier used for text embeddings.
	EmbeddingModel string `yaml:"embedding_model"`

	// AnswerModel is the model identifier used for answer generation.
	AnswerModel string `yaml:"answer_model"`

	// ContactEmail appears in degraded "contact support" responses.
	ContactEmail string `yaml:"contact_email"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data/chunks",
		Search: SearchConfig{
			TopK:                3,
			SimilarityThreshold: 0.7,
			SemanticWeight:      0.7,
		},
		Chunking: ChunkingConfig{
			MaxKeywords: 10,
			Profiles: map[string]ChunkProfile{
				"document": {Size: 1000, Overlap: 100},
				"faq":      {Size: 400, Overlap: 50},
			},
			DefaultProfile: "document",
		},
		AI: AIConfig{
			Host:           "http://localhost:11434/v1",
			EmbeddingModel: "all-minilm",
			AnswerModel:    "mistral-small",
			ContactEmail:   "contact@optim-finance.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file over the defaults.
// A missing file returns the defaults without error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration. It is called once by the composition
// root before any component is constructed.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("%w: search.top_k must be at least 1", ErrInvalidConfig)
	}
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: search.similarity_threshold must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Search.SemanticWeight <= 0 || c.Search.SemanticWeight >= 1 {
		return fmt.Errorf("%w: search.semantic_weight must be in (0, 1)", ErrInvalidConfig)
	}
	if c.Chunking.MaxKeywords < 1 {
		return fmt.Errorf("%w: chunking.max_keywords must be at least 1", ErrInvalidConfig)
	}
	if len(c.Chunking.Profiles) == 0 {
		return fmt.Errorf("%w: chunking.profiles must not be empty", ErrInvalidConfig)
	}
	if _, ok := c.Chunking.Profiles[c.Chunking.DefaultProfile]; !ok {
		return fmt.Errorf("%w: chunking.default_profile %q is not a defined profile", ErrInvalidConfig, c.Chunking.DefaultProfile)
	}
	for name, p := range c.Chunking.Profiles {
		if err := ValidateProfile(p); err != nil {
			return fmt.Errorf("%w: chunking profile %q: %w", ErrInvalidConfig, name, err)
		}
	}
	if c.AI.Host == "" {
		return fmt.Errorf("%w: ai.host is required", ErrInvalidConfig)
	}
	if c.AI.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai.embedding_model is required", ErrInvalidConfig)
	}
	return nil
}

// ValidateProfile checks a chunking window. The overlap must be strictly
// smaller than the chunk size; violating this is a configuration error, not a
// runtime chunking error.
func ValidateProfile(p ChunkProfile) error {
	if p.Size < 1 {
		return fmt.Errorf("size must be at least 1, got %d", p.Size)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d", p.Overlap)
	}
	if p.Overlap >= p.Size {
		return fmt.Errorf("overlap %d must be smaller than size %d", p.Overlap, p.Size)
	}
	return nil
}
