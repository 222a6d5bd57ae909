package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. If the database fails to open
// (e.g. it was corrupted by an unclean shutdown), the directory is deleted
// and recreated from scratch, once; a second failure propagates.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	logger := slog.Default()

	if inMemory {
		opts := badger.DefaultOptions("").WithInMemory(true)
		opts.Logger = &badgerLoggerAdapter{logger: logger}
		opts.Compression = options.None
		db, err := badger.Open(opts)
		if err != nil {
			return nil, err
		}
		return &Backend{db: db, logger: logger}, nil
	}

	db, err := openDir(filePath, logger)
	if err != nil {
		logger.Warn("failed to open database, recreating from scratch",
			"path", filePath, "error", err)
		if rmErr := os.RemoveAll(filePath); rmErr != nil {
			return nil, fmt.Errorf("recreate database %s: %w", filePath, rmErr)
		}
		db, err = openDir(filePath, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Backend{db: db, logger: logger}, nil
}

func openDir(filePath string, logger *slog.Logger) (*badger.DB, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", filePath)
	}

	opts := badger.DefaultOptions(filePath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	return badger.Open(opts)
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// DropAll removes all data from the database.
func (b *Backend) DropAll() error {
	return b.db.DropAll()
}

// FindSimilar scans all stored chunks and returns the nearest neighbors of
// the query vector under cosine distance, closest first. A non-empty category
// restricts candidates before ranking. Stored embeddings are normalized on
// write, so cosine similarity reduces to a dot product.
func (b *Backend) FindSimilar(ctx context.Context, vector []float32, limit int, category string) ([]*core.VectorMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	query := normalizeVector(vector)

	var matches []*core.VectorMatch
	err := b.WithTx(func(tx *badger.Txn) error {
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
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}

			if len(chunk.Embedding) == 0 {
				continue
			}
			if category != "" && chunk.Category != category {
				continue
			}

			similarity := dotProduct(query, chunk.Embedding)
			matches = append(matches, &core.VectorMatch{
				Chunk:    chunk,
				Distance: 1 - similarity,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending (closest first)
	slices.SortFunc(matches, func(a, b *core.VectorMatch) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// normalizeVector returns a unit-length copy of v. Zero vectors are
// returned as-is.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
