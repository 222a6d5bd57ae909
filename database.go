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

// Package kbase assembles the knowledge base: a document ingestion pipeline
// and a hybrid retrieval engine over a persistent chunk collection, backed
// by an OpenAI-compatible model service for embeddings and answers.
package kbase

import (
	"context"
	"io"
	"log/slog"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/ai/openai"
	"github.com/optimfinance/kbase/config"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/ingestion"
	"github.com/optimfinance/kbase/reembed"
	"github.com/optimfinance/kbase/search"
	"github.com/optimfinance/kbase/storage"
	"github.com/optimfinance/kbase/storage/badger"
)

// Database is the composition root tying storage, ingestion, search, and
// answer generation together.
type Database struct {
	config   *config.Config
	repo     storage.ChunkRepository
	provider ai.AIProvider
	searcher *search.Searcher
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	provider ai.AIProvider
	inMemory bool
}

// WithAIProvider injects a custom AI provider instead of the
// OpenAI-compatible one built from the configuration. Used in tests with
// the mock provider.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the chunk collection in memory instead of under the
// configured data directory. Nothing is persisted.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase validates the configuration and wires up all components.
func NewDatabase(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	path := cfg.DataDir
	if options.inMemory {
		path = ""
	}
	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}
	repo := badger.NewChunkRepository(backend)

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		aiConfig := ai.DefaultConfig(
			ai.WithHost(cfg.AI.Host),
			ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
			ai.WithAnswerModel(cfg.AI.AnswerModel),
			ai.WithContactEmail(cfg.AI.ContactEmail),
		)
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	searcher, err := search.NewSearcher(repo, provider,
		search.WithTopK(cfg.Search.TopK),
		search.WithSimilarityThreshold(cfg.Search.SimilarityThreshold),
		search.WithSemanticWeight(cfg.Search.SemanticWeight),
	)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(repo, provider,
		ingestion.WithChunking(cfg.Chunking),
	)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		config:   cfg,
		repo:     repo,
		provider: provider,
		searcher: searcher,
		pipeline: pipeline,
		logger:   slog.Default(),
	}, nil
}

// Close releases the pipeline, AI provider, and storage.
func (db *Database) Close() error {
	db.pipeline.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	return nil
}

// Ingest adds or replaces one document in the knowledge base.
// Returns the number of chunks stored.
func (db *Database) Ingest(ctx context.Context, path string, opts *ingestion.IngestOptions) (int, error) {
	return db.pipeline.IngestFile(ctx, path, opts)
}

// IngestText adds or replaces raw text under a filename.
// Returns the number of chunks stored.
func (db *Database) IngestText(ctx context.Context, text, filename string, opts *ingestion.IngestOptions) (int, error) {
	return db.pipeline.IngestText(ctx, text, filename, opts)
}

// DeleteDocument removes all chunks of a document.
// Returns true when the document existed.
func (db *Database) DeleteDocument(ctx context.Context, filename string) (bool, error) {
	removed, err := db.repo.DeleteByFilename(ctx, filename)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Search runs a retrieval query. A topK of 0 uses the configured default,
// an empty category searches every category.
func (db *Database) Search(ctx context.Context, query string, mode core.SearchMode, topK int, category string) *core.SearchResponse {
	return db.searcher.Search(ctx, query, mode, topK, category)
}

// Ask runs a hybrid search and generates a grounded answer from the results.
func (db *Database) Ask(ctx context.Context, query string) (*ai.Answer, *core.SearchResponse, error) {
	response := db.searcher.Search(ctx, query, core.SearchModeHybrid, 0, "")

	answer, err := db.provider.Answerer().GenerateAnswer(ctx, query, response.Results, response.Intent)
	if err != nil {
		return nil, response, err
	}
	return answer, response, nil
}

// Stats summarizes the knowledge base contents.
func (db *Database) Stats(ctx context.Context) (*core.StoreStats, error) {
	return db.repo.Stats(ctx)
}

// Clear removes every chunk from the knowledge base.
func (db *Database) Clear(ctx context.Context) error {
	return db.repo.Clear(ctx)
}

// Reembed regenerates the embeddings of every stored chunk.
// Progress is written to the given writer.
func (db *Database) Reembed(ctx context.Context, cfg *reembed.Config, progress io.Writer) error {
	return reembed.NewReembedder(db.repo, db.provider.Embedder(), cfg, progress).Run(ctx)
}

// Repository exposes the chunk repository.
func (db *Database) Repository() storage.ChunkRepository {
	return db.repo
}

// NewSearcher creates an additional searcher over the same repository.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repo, db.provider, opts...)
}

// NewIngestionPipeline creates an additional ingestion pipeline over the
// same repository.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.repo, db.provider, opts...)
}
