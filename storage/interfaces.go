package storage

import (
	"context"

	"github.com/optimfinance/kbase/core"
)

// ChunkRepository is the narrow adapter over the persistent chunk collection.
// Implementations must be thread-safe: reads may proceed concurrently with
// each other and with writes to other filenames, and the delete-then-insert
// performed by ReplaceDocument must be atomic with respect to concurrent
// reads of that filename's chunks.
type ChunkRepository interface {
	// AddChunks writes one or more chunks with their embeddings and metadata.
	// Each chunk's {content, metadata, embedding} triple is written
	// consistently; embeddings are L2-normalized on the way in.
	// Sets InsertedAt on the stored chunks.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// UpdateChunks rewrites existing chunks in place.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) error

	// ReplaceDocument atomically deletes all chunks stored under filename and
	// inserts the given chunks. Readers never observe a half-replaced
	// document. Returns the number of chunks removed.
	ReplaceDocument(ctx context.Context, filename string, chunks []*core.Chunk) (int, error)

	// DeleteByFilename removes all chunks stored under filename, leaving no
	// orphans. Returns the number of chunks removed; zero is not an error.
	DeleteByFilename(ctx context.Context, filename string) (int, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByFilename retrieves a document's chunks ordered by ChunkIndex.
	// Returns an empty slice when the filename is unknown.
	GetChunksByFilename(ctx context.Context, filename string) ([]*core.Chunk, error)

	// AllChunks returns every chunk in the collection, in unspecified order.
	AllChunks(ctx context.Context) ([]*core.Chunk, error)

	// FindSimilar returns up to limit nearest neighbors of the vector under
	// cosine distance, closest first. A non-empty category restricts
	// candidates to an exact metadata match before ranking.
	FindSimilar(ctx context.Context, vector []float32, limit int, category string) ([]*core.VectorMatch, error)

	// Stats summarizes the collection contents.
	Stats(ctx context.Context) (*core.StoreStats, error)

	// Clear removes every chunk from the collection.
	Clear(ctx context.Context) error

	// Close closes the storage backend and releases resources.
	Close() error
}
