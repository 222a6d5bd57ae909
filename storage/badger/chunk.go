package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewRepository opens a BadgerDB database at path and returns a chunk
// repository backed by it. Closing the repository closes the database.
func NewRepository(path string) (storage.ChunkRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return NewChunkRepository(backend), nil
}

// NewChunkRepository creates a ChunkRepository on an existing backend.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close closes the underlying database.
func (r *ChunkRepository) Close() error {
	return r.backend.Close()
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, limit int, category string) ([]*core.VectorMatch, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	matches, err := r.backend.FindSimilar(ctx, vector, limit, category)
	return matches, translateErr(err)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	return translateErr(r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := writeChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true))
}

// UpdateChunks rewrites existing chunks in place. InsertedAt is preserved
// from the stored record.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return translateErr(r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)
			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chunk.InsertedAt = old.InsertedAt
			chunk.Embedding = normalizeVector(chunk.Embedding)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			if old.Filename != chunk.Filename {
				if err := tx.Delete(makeChunkFilenameKey(old.Filename, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeChunkFilenameKey(chunk.Filename, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true))
}

// ReplaceDocument atomically deletes all chunks stored under filename and
// inserts the given chunks. The delete and insert share one transaction, so
// readers never observe a half-replaced document and a failed insert rolls
// the delete back too.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, filename string, chunks []*core.Chunk) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return 0, err
		}
	}

	var removed int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		removed, err = deleteByFilename(tx, filename)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := writeChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, translateErr(err)
	}
	return removed, nil
}

// DeleteByFilename removes all chunks stored under filename.
// Returns the number of chunks removed.
func (r *ChunkRepository) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	var removed int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		removed, err = deleteByFilename(tx, filename)
		if err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, translateErr(err)
	}
	return removed, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, translateErr(err)
}

// GetChunksByFilename retrieves a document's chunks ordered by ChunkIndex.
func (r *ChunkRepository) GetChunksByFilename(ctx context.Context, filename string) ([]*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := filenameIndexIDs(tx, filename)
		if err != nil {
			return err
		}
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, translateErr(err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	return results, nil
}

// AllChunks returns every stored chunk.
func (r *ChunkRepository) AllChunks(ctx context.Context) ([]*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, translateErr(err)
}

// Stats summarizes the collection contents.
func (r *ChunkRepository) Stats(ctx context.Context) (*core.StoreStats, error) {
	chunks, err := r.AllChunks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &core.StoreStats{
		TotalChunks: len(chunks),
		Categories:  make(map[string]int),
		FileTypes:   make(map[string]int),
		Filenames:   make(map[string]int),
	}
	for _, chunk := range chunks {
		stats.Categories[chunk.Category]++
		stats.FileTypes[chunk.FileType]++
		stats.Filenames[chunk.Filename]++
	}
	stats.TotalFiles = len(stats.Filenames)
	return stats, nil
}

// Clear removes every chunk from storage.
func (r *ChunkRepository) Clear(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return translateErr(r.backend.DropAll())
}

// Helper functions

// translateErr maps driver errors onto the storage sentinels so callers
// never depend on badger error values. Storage sentinels, chunk validation
// errors and context cancellation pass through untouched.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrStorageClosed),
		errors.Is(err, storage.ErrSerializationFailed),
		errors.Is(err, storage.ErrInvalidQuery),
		errors.Is(err, core.ErrInvalidChunk),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", storage.ErrStorageFailed, err)
	}
}

// writeChunk stores a chunk record and its filename index entry.
// Embeddings are normalized to unit length and InsertedAt is stamped here.
func writeChunk(tx *badger.Txn, chunk *core.Chunk) error {
	chunk.Embedding = normalizeVector(chunk.Embedding)
	chunk.InsertedAt = time.Now().UTC()

	if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
		return err
	}
	return tx.Set(makeChunkFilenameKey(chunk.Filename, chunk.Id), storage.MarshalID(chunk.Id))
}

// readChunk reads a chunk record from the transaction.
// Returns nil without error when the key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// filenameIndexIDs collects the chunk IDs indexed under a filename.
func filenameIndexIDs(tx *badger.Txn, filename string) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialFilenameKey(filename)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// deleteByFilename removes a document's records and index entries within
// the transaction, leaving no orphans.
func deleteByFilename(tx *badger.Txn, filename string) (int, error) {
	ids, err := filenameIndexIDs(tx, filename)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		key := makeChunkKey(id)
		if _, err := tx.Get(key); err == nil {
			if err := tx.Delete(key); err != nil {
				return removed, err
			}
			removed++
		} else if err != badger.ErrKeyNotFound {
			return removed, err
		}
		if err := tx.Delete(makeChunkFilenameKey(filename, id)); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
