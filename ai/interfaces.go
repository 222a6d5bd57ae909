package ai

import (
	"context"

	"github.com/optimfinance/kbase/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Answer is the result of answer generation.
type Answer struct {
	// Response is the generated answer text. On failure it carries a
	// user-safe fallback message, never a raw error.
	Response string

	// Sources lists the IDs of the chunks the answer was grounded on.
	Sources []core.ID

	// Success reports whether the model produced a grounded answer.
	Success bool
}

// Answerer generates a grounded answer from a query and its retrieved
// context. Implementations must be thread-safe for concurrent use.
type Answerer interface {
	// GenerateAnswer produces an answer to the query using the ranked chunks
	// as context. The intent label is advisory and may shape the prompt.
	GenerateAnswer(ctx context.Context, query string, results []*core.ScoredChunk, intent string) (*Answer, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and Answerer
// instances, ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Answerer returns the answer generation service.
	// The returned Answerer is safe for concurrent use.
	Answerer() Answerer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
