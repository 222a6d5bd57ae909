package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/chunker"
	"github.com/optimfinance/kbase/config"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/extract"
	"github.com/optimfinance/kbase/storage"
	"github.com/panjf2000/ants/v2"
)

// embedBatchSize is the number of chunks embedded per worker task.
const embedBatchSize = 16

// Pipeline orchestrates document ingestion: extraction, chunking, embedding,
// and storage. Embedding batches run concurrently on a worker pool.
type Pipeline struct {
	repository storage.ChunkRepository
	extractor  extract.Extractor
	chunker    *chunker.Chunker
	embedder   ai.Embedder
	pool       *ants.Pool
	chunking   config.ChunkingConfig
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunking sets the chunking profiles.
// Default is the profiles from config.DefaultConfig().
func WithChunking(chunking config.ChunkingConfig) Option {
	return func(p *Pipeline) error {
		for name, profile := range chunking.Profiles {
			if err := config.ValidateProfile(profile); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
		}
		p.chunking = chunking
		p.chunker = chunker.New(
			chunker.WithMaxKeywords(chunking.MaxKeywords),
			chunker.WithLogger(p.logger),
		)
		return nil
	}
}

// WithExtractor sets a custom extractor.
// Default is extract.NewFileExtractor().
func WithExtractor(extractor extract.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.extractor = extractor
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	defaults := config.DefaultConfig().Chunking
	p := &Pipeline{
		repository: repository,
		extractor:  extract.NewFileExtractor(),
		chunker:    chunker.New(chunker.WithMaxKeywords(defaults.MaxKeywords)),
		embedder:   provider.Embedder(),
		pool:       pool,
		chunking:   defaults,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// Category tags the document's chunks; empty means "general".
	Category string

	// Intent tags the document's chunks; empty means "general".
	Intent string

	// Profile names a configured chunking profile. Empty selects the
	// default profile. Ignored when ChunkSize is set.
	Profile string

	// ChunkSize and Overlap override the profile window when ChunkSize
	// is positive.
	ChunkSize int
	Overlap   int
}

// IngestFile extracts, chunks, embeds, and stores one document. Re-ingesting
// a filename atomically replaces its previous chunks, so ingestion is
// idempotent per file. Returns the number of chunks stored.
func (p *Pipeline) IngestFile(ctx context.Context, path string, opts *IngestOptions) (int, error) {
	filename := filepath.Base(path)
	fileType := extract.FileTypeOf(filename)

	if !p.extractor.Supported(fileType) {
		return 0, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, fileType)
	}

	text, err := p.extractor.Extract(path, fileType)
	if err != nil {
		return 0, err
	}

	return p.IngestText(ctx, text, filename, opts)
}

// IngestText chunks, embeds, and stores raw text under filename. The
// previous chunks of that filename are atomically replaced.
// Returns the number of chunks stored.
func (p *Pipeline) IngestText(ctx context.Context, text, filename string, opts *IngestOptions) (int, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	size, overlap, err := p.window(opts)
	if err != nil {
		return 0, err
	}

	chunks, err := p.chunker.Chunk(text, filename, opts.Category, opts.Intent, size, overlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, extract.ErrEmptyDocument
	}

	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return 0, err
		}
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	removed, err := p.repository.ReplaceDocument(ctx, filename, chunks)
	if err != nil {
		return 0, err
	}

	p.logger.Info("ingested document",
		"filename", filename, "chunks", len(chunks), "replaced", removed,
		"category", chunks[0].Category, "intent", chunks[0].Intent)

	return len(chunks), nil
}

// window resolves the chunking window from the ingest options.
func (p *Pipeline) window(opts *IngestOptions) (size, overlap int, err error) {
	if opts.ChunkSize > 0 {
		return opts.ChunkSize, opts.Overlap, nil
	}
	if opts.Profile != "" {
		profile, ok := p.chunking.Profiles[opts.Profile]
		if !ok {
			return 0, 0, fmt.Errorf("%w: %s", ErrUnknownProfile, opts.Profile)
		}
		return profile.Size, profile.Overlap, nil
	}
	profile := p.chunking.ProfileFor(p.chunking.DefaultProfile)
	return profile.Size, profile.Overlap, nil
}

// embedChunks generates embeddings for all chunks, batching the work across
// the worker pool. The embedding input pairs each chunk's title with its
// content. The first batch error fails the whole document.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.EmbeddingText()
			}

			embeddings, err := p.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				setErr(err)
				return
			}
			if len(embeddings) != len(batch) {
				setErr(fmt.Errorf("%w: expected %d, received %d",
					ErrEmbeddingMismatch, len(batch), len(embeddings)))
				return
			}
			for i := range embeddings {
				batch[i].Embedding = embeddings[i]
			}
		})
		if submitErr != nil {
			wg.Done()
			setErr(submitErr)
			break
		}
	}

	wg.Wait()
	return firstErr
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
