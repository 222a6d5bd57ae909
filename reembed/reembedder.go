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

// Package reembed regenerates the embeddings of every stored chunk, for use
// after switching embedding models. Failed batches are retried with
// exponential backoff before aborting the run.
package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
	"github.com/schollz/progressbar/v3"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// MaxRetries is the maximum number of retry attempts for failed batches
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all chunks in a collection.
type Reembedder struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
}

// Run executes the reembedding operation. Every chunk in the collection is
// reembedded with the configured embedder and rewritten in place.
func (r *Reembedder) Run(ctx context.Context) error {
	chunks, err := r.repo.AllChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	total := len(chunks)
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in collection (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	start := time.Now()
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("reembedding"),
		progressbar.OptionShowCount(),
	)

	for begin := 0; begin < total; begin += r.config.BatchSize {
		end := begin + r.config.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[begin:end]

		if err := r.processBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch at offset %d: %w", begin, err)
		}
		bar.Add(len(batch))
	}

	bar.Finish()
	elapsed := time.Since(start)
	fmt.Fprintf(r.progress, "\nReembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

// processBatch embeds one batch with retries and rewrites the chunks.
func (r *Reembedder) processBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.EmbeddingText()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = r.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return err
	}

	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d, received %d",
			ErrEmbeddingMismatch, len(batch), len(embeddings))
	}

	for i := range embeddings {
		batch[i].Embedding = embeddings[i]
	}
	return r.repo.UpdateChunks(ctx, batch...)
}
