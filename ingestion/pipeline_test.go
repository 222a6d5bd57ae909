package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimfinance/kbase/ai/mock"
	"github.com/optimfinance/kbase/extract"
	"github.com/optimfinance/kbase/storage"
	"github.com/optimfinance/kbase/storage/badger"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.ChunkRepository) {
	t.Helper()

	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	pipeline, err := NewPipeline(repo, mock.NewMockProvider(), opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo
}

func writeDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func sampleDocument() string {
	var text string
	for i := 1; i <= 12; i++ {
		text += fmt.Sprintf("La phrase %d explique les modalités du portage salarial. ", i)
	}
	return text
}

func TestNewPipelineValidation(t *testing.T) {
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	_, err = NewPipeline(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngestFileStoresEmbeddedChunks(t *testing.T) {
	pipeline, repo := newTestPipeline(t)
	path := writeDocument(t, "guide.txt", sampleDocument())

	count, err := pipeline.IngestFile(context.Background(), path, &IngestOptions{
		Category:  "services",
		Intent:    "definition",
		ChunkSize: 200,
		Overlap:   30,
	})
	require.NoError(t, err)
	require.Greater(t, count, 1)

	chunks, err := repo.GetChunksByFilename(context.Background(), "guide.txt")
	require.NoError(t, err)
	require.Len(t, chunks, count)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "services", chunk.Category)
		assert.Equal(t, "definition", chunk.Intent)
		assert.Equal(t, "txt", chunk.FileType)
		assert.NotEmpty(t, chunk.Embedding, "chunk %d should be embedded", i)
		assert.NotEmpty(t, chunk.Keywords, "chunk %d should carry keywords", i)
	}
}

func TestIngestFileIsIdempotent(t *testing.T) {
	pipeline, repo := newTestPipeline(t)
	path := writeDocument(t, "faq.txt", sampleDocument())
	opts := &IngestOptions{ChunkSize: 200, Overlap: 30}

	first, err := pipeline.IngestFile(context.Background(), path, opts)
	require.NoError(t, err)

	second, err := pipeline.IngestFile(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, stats.TotalChunks, "re-ingestion should replace, not accumulate")
}

func TestIngestFileUnsupportedFormat(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	path := writeDocument(t, "rapport.pdf", "%PDF-1.4")

	_, err := pipeline.IngestFile(context.Background(), path, nil)
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestIngestFileEmptyDocument(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	path := writeDocument(t, "vide.txt", "   \n")

	_, err := pipeline.IngestFile(context.Background(), path, nil)
	assert.ErrorIs(t, err, extract.ErrEmptyDocument)
}

func TestIngestTextUnknownProfile(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	_, err := pipeline.IngestText(context.Background(), sampleDocument(), "doc.txt", &IngestOptions{
		Profile: "inexistant",
	})
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestIngestTextWindowOverride(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	// The default profile swallows the sample in few chunks; a small
	// explicit window must win over it.
	defaultCount, err := pipeline.IngestText(ctx, sampleDocument(), "large.txt", nil)
	require.NoError(t, err)

	smallCount, err := pipeline.IngestText(ctx, sampleDocument(), "small.txt", &IngestOptions{
		ChunkSize: 120,
		Overlap:   20,
	})
	require.NoError(t, err)

	assert.Greater(t, smallCount, defaultCount)
}

func TestIngestTextEmbeddingMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	pipeline, err := NewPipeline(repo, mock.NewMockProviderWithServices(embedder, mock.NewMockAnswerer()))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.IngestText(context.Background(), sampleDocument(), "doc.txt", &IngestOptions{
		ChunkSize: 120,
		Overlap:   20,
	})
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)

	// Nothing must land in storage when embedding fails.
	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
}
