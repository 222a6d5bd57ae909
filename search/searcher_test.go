package search

import (
	"context"
	"errors"
	"testing"

	"github.com/optimfinance/kbase/ai/mock"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
	"github.com/optimfinance/kbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder returns the same query vector for every text.
func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func newTestSearcher(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Searcher, storage.ChunkRepository) {
	t.Helper()

	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnswerer())
	searcher, err := NewSearcher(repo, provider, opts...)
	require.NoError(t, err)

	return searcher, repo
}

func testChunk(id uint64, content string, keywords []string, embedding []float32) *core.Chunk {
	return &core.Chunk{
		Id:        core.ID(id),
		Content:   content,
		Title:     content,
		Keywords:  keywords,
		Category:  "services",
		Filename:  "corpus.txt",
		Embedding: embedding,
	}
}

func TestNewSearcherValidation(t *testing.T) {
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()
	provider := mock.NewMockProvider()

	_, err = NewSearcher(nil, provider)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewSearcher(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestSemanticThresholdExcludes(t *testing.T) {
	// Query (0.8, 0.6): similarity 0.8 with c1, 0.6 with c2. The default
	// 0.7 threshold keeps only c1.
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{0.8, 0.6}))

	require.NoError(t, repo.AddChunks(context.Background(),
		testChunk(1, "le portage salarial", []string{"portage"}, []float32{1, 0}),
		testChunk(2, "les frais annexes", []string{"frais"}, []float32{0, 1}),
	))

	results, err := searcher.Semantic(context.Background(), "portage", 5, "")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.InDelta(t, 0.8, float64(results[0].SemanticScore), 1e-4)
	assert.InDelta(t, 0.8, float64(results[0].Score), 1e-4)
}

func TestSemanticCategoryFilter(t *testing.T) {
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{1, 0}),
		WithSimilarityThreshold(0.5))

	services := testChunk(1, "le portage salarial", nil, []float32{1, 0})
	pricing := testChunk(2, "les tarifs", nil, []float32{1, 0})
	pricing.Category = "pricing"
	require.NoError(t, repo.AddChunks(context.Background(), services, pricing))

	results, err := searcher.Semantic(context.Background(), "portage", 5, "pricing")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, core.ID(2), results[0].Chunk.Id)
}

func TestSemanticEmptyQuery(t *testing.T) {
	searcher, _ := newTestSearcher(t, mock.NewMockEmbedder())

	_, err := searcher.Semantic(context.Background(), "   ", 5, "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestKeywordScoring(t *testing.T) {
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{0.8, 0.6}))

	require.NoError(t, repo.AddChunks(context.Background(),
		// 2 keyword matches (x2) + 2 content matches = 6
		testChunk(1, "le portage salarial expliqué", []string{"portage", "salarial"}, []float32{1, 0}),
		// 1 keyword match (x2) + 1 content match = 3
		testChunk(2, "nos tarifs sont transparents", []string{"tarifs"}, []float32{0, 1}),
		// no overlap with the query: excluded
		testChunk(3, "notre histoire depuis 2010", []string{"histoire"}, []float32{0.6, 0.8}),
	))

	results, err := searcher.Keyword(context.Background(), "tarifs portage salarial", 5, "")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.InDelta(t, 6, float64(results[0].KeywordScore), 1e-6)
	assert.Equal(t, core.ID(2), results[1].Chunk.Id)
	assert.InDelta(t, 3, float64(results[1].KeywordScore), 1e-6)
}

func TestKeywordMatchesShortTokens(t *testing.T) {
	// Scoring splits on whitespace only, so acronyms and other short tokens
	// still count as content matches.
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{0.8, 0.6}))

	require.NoError(t, repo.AddChunks(context.Background(),
		testChunk(1, "le TJM est indiqué ici", []string{"indiqué"}, []float32{1, 0}),
	))

	results, err := searcher.Keyword(context.Background(), "quel TJM", 5, "")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.InDelta(t, 1, float64(results[0].KeywordScore), 1e-6)
}

func TestHybridBlendsChannels(t *testing.T) {
	// Query (0.8, 0.6): c1 similarity 0.8, c2 similarity 0.6, c3 orthogonal.
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{0.8, 0.6}),
		WithSimilarityThreshold(0.5),
		WithSemanticWeight(0.5))

	require.NoError(t, repo.AddChunks(context.Background(),
		testChunk(1, "le portage salarial expliqué", []string{"portage", "salarial"}, []float32{1, 0}),
		testChunk(2, "nos tarifs sont transparents", []string{"tarifs"}, []float32{0, 1}),
		testChunk(3, "notre histoire depuis 2010", []string{"histoire"}, []float32{-0.6, 0.8}),
	))

	results, err := searcher.Hybrid(context.Background(), "tarifs portage salarial", 5, "")
	require.NoError(t, err)

	// c3 is below the semantic threshold and shares no terms: absent.
	require.Len(t, results, 2)

	// c1: semantic 0.8/0.8 = 1.0, keyword 6/6 = 1.0 -> 1.0
	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-4)

	// c2: semantic 0.6/0.8 = 0.75, keyword 3/6 = 0.5 -> 0.625
	assert.Equal(t, core.ID(2), results[1].Chunk.Id)
	assert.InDelta(t, 0.625, float64(results[1].Score), 1e-4)
}

func TestHybridSurvivesKeywordOnlyHit(t *testing.T) {
	// A chunk found only by keywords still surfaces in hybrid results.
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{1, 0}),
		WithSimilarityThreshold(0.9))

	require.NoError(t, repo.AddChunks(context.Background(),
		testChunk(1, "les tarifs du portage", []string{"tarifs"}, []float32{0, 1}),
	))

	results, err := searcher.Hybrid(context.Background(), "tarifs", 5, "")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.Zero(t, results[0].SemanticScore)
	assert.Positive(t, results[0].KeywordScore)
}

func TestSearchDegradesToEmptyOnFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model endpoint down")
	}
	searcher, _ := newTestSearcher(t, embedder)

	response := searcher.Search(context.Background(), "quel est le tarif ?", core.SearchModeHybrid, 0, "")

	require.NotNil(t, response)
	assert.Equal(t, "pricing", response.Intent)
	assert.Empty(t, response.Results)
	assert.Zero(t, response.NumResults)
}

func TestSearchResponseShape(t *testing.T) {
	searcher, repo := newTestSearcher(t, fixedEmbedder([]float32{1, 0}),
		WithSimilarityThreshold(0.5))

	require.NoError(t, repo.AddChunks(context.Background(),
		testChunk(1, "le contrat de portage", []string{"contrat", "portage"}, []float32{1, 0}),
	))

	response := searcher.Search(context.Background(), "comment signer le contrat ?", core.SearchModeSemantic, 0, "")

	assert.Equal(t, "comment signer le contrat ?", response.Query)
	assert.Equal(t, "process", response.Intent)
	assert.Equal(t, len(response.Results), response.NumResults)
	require.NotEmpty(t, response.Results)
}

func TestSearchEmptyQuery(t *testing.T) {
	searcher, _ := newTestSearcher(t, mock.NewMockEmbedder())

	response := searcher.Search(context.Background(), "", core.SearchModeHybrid, 0, "")
	assert.Empty(t, response.Results)
	assert.Equal(t, GeneralIntent, response.Intent)
}
