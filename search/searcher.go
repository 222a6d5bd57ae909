package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
)

// Defaults applied when options leave the corresponding knob unset.
const (
	DefaultTopK                = 3
	DefaultSimilarityThreshold = 0.7
	DefaultSemanticWeight      = 0.7
)

// keywordPoolFactor widens the candidate pool for keyword scoring: the
// keyword channel re-ranks keywordPoolFactor*topK semantic candidates.
const keywordPoolFactor = 3

// Searcher provides semantic, keyword, and hybrid search over stored chunks.
type Searcher struct {
	repository          storage.ChunkRepository
	embedder            ai.Embedder
	logger              *slog.Logger
	topK                int
	similarityThreshold float32
	semanticWeight      float32
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets the default number of results per search.
func WithTopK(topK int) Option {
	return func(s *Searcher) error {
		if topK > 0 {
			s.topK = topK
		}
		return nil
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity for a chunk to
// appear in semantic results.
func WithSimilarityThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.similarityThreshold = threshold
		return nil
	}
}

// WithSemanticWeight sets the semantic channel's weight in hybrid scoring.
// The keyword channel receives the complement.
func WithSemanticWeight(weight float32) Option {
	return func(s *Searcher) error {
		if weight >= 0 && weight <= 1 {
			s.semanticWeight = weight
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository:          repository,
		embedder:            provider.Embedder(),
		logger:              slog.Default(),
		topK:                DefaultTopK,
		similarityThreshold: DefaultSimilarityThreshold,
		semanticWeight:      DefaultSemanticWeight,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search classifies the query's intent, dispatches to the mode's channel,
// and assembles the response. Search degrades gracefully: channel failures
// are logged and surface as an empty result list, never as an error, so a
// flaky model endpoint cannot take the assistant down with it.
func (s *Searcher) Search(ctx context.Context, query string, mode core.SearchMode, topK int, category string) *core.SearchResponse {
	return s.SearchWithMonitor(ctx, query, mode, topK, category, nil)
}

// SearchWithMonitor is Search with observation hooks.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, mode core.SearchMode, topK int, category string, monitor SearchMonitor) *core.SearchResponse {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, mode)

	intent := ClassifyIntent(query)
	monitor.AfterIntentClassification(intent)

	response := &core.SearchResponse{
		Query:   query,
		Intent:  intent,
		Results: []*core.ScoredChunk{},
	}

	if strings.TrimSpace(query) == "" {
		monitor.Finish(response)
		return response
	}

	var results []*core.ScoredChunk
	var err error
	switch mode {
	case core.SearchModeSemantic:
		results, err = s.semantic(ctx, query, topK, category, monitor)
	case core.SearchModeKeyword:
		results, err = s.keyword(ctx, query, topK, category, monitor)
	default:
		results, err = s.hybrid(ctx, query, topK, category, monitor)
	}
	if err != nil {
		s.logger.Error("search failed, returning empty results",
			"query", query, "mode", string(mode), "err", err)
		results = nil
	}

	if results != nil {
		response.Results = results
	}
	response.NumResults = len(response.Results)
	monitor.Finish(response)

	return response
}

// Semantic searches by embedding similarity alone. Results below the
// similarity threshold are dropped, so fewer than topK results can come
// back even when the store has more chunks.
func (s *Searcher) Semantic(ctx context.Context, query string, topK int, category string) ([]*core.ScoredChunk, error) {
	return s.semantic(ctx, query, topK, category, &noopMonitor{})
}

// Keyword searches by keyword overlap. A pool of semantic candidates is
// re-ranked by keyword score; chunks sharing no terms with the query are
// excluded.
func (s *Searcher) Keyword(ctx context.Context, query string, topK int, category string) ([]*core.ScoredChunk, error) {
	return s.keyword(ctx, query, topK, category, &noopMonitor{})
}

// Hybrid runs the semantic and keyword channels concurrently, max-normalizes
// each channel's scores, and blends them with the configured semantic weight.
func (s *Searcher) Hybrid(ctx context.Context, query string, topK int, category string) ([]*core.ScoredChunk, error) {
	return s.hybrid(ctx, query, topK, category, &noopMonitor{})
}

func (s *Searcher) semantic(ctx context.Context, query string, topK int, category string, monitor SearchMonitor) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.topK
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.semanticFromVector(ctx, embedding, topK, category)
	if err != nil {
		return nil, err
	}
	monitor.AfterSemanticSearch(results)
	return results, nil
}

func (s *Searcher) semanticFromVector(ctx context.Context, vector []float32, topK int, category string) ([]*core.ScoredChunk, error) {
	matches, err := s.repository.FindSimilar(ctx, vector, topK, category)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	results := make([]*core.ScoredChunk, 0, len(matches))
	for _, match := range matches {
		similarity := 1 - match.Distance
		if similarity < s.similarityThreshold {
			continue
		}
		results = append(results, &core.ScoredChunk{
			Chunk:         match.Chunk,
			SemanticScore: similarity,
			Score:         similarity,
		})
	}
	return results, nil
}

func (s *Searcher) keyword(ctx context.Context, query string, topK int, category string, monitor SearchMonitor) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.topK
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.keywordFromVector(ctx, query, embedding, topK, category)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(results)
	return results, nil
}

func (s *Searcher) keywordFromVector(ctx context.Context, query string, vector []float32, topK int, category string) ([]*core.ScoredChunk, error) {
	matches, err := s.repository.FindSimilar(ctx, vector, topK*keywordPoolFactor, category)
	if err != nil {
		s.logger.Error("error building keyword candidate pool", "err", err)
		return nil, err
	}

	terms := queryTerms(query)
	results := make([]*core.ScoredChunk, 0, len(matches))
	for _, match := range matches {
		score := keywordScore(match.Chunk, terms)
		if score == 0 {
			continue
		}
		results = append(results, &core.ScoredChunk{
			Chunk:        match.Chunk,
			KeywordScore: float32(score),
			Score:        float32(score),
		})
	}

	// Candidates arrive ordered by vector distance; a stable sort keeps
	// that order among equal keyword scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].KeywordScore > results[j].KeywordScore
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Searcher) hybrid(ctx context.Context, query string, topK int, category string, monitor SearchMonitor) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.topK
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Each channel over-fetches slightly so the merge has candidates beyond
	// the final topK cut.
	channelK := topK + 3

	var (
		wg           sync.WaitGroup
		semanticHits []*core.ScoredChunk
		keywordHits  []*core.ScoredChunk
		semanticErr  error
		keywordErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semanticHits, semanticErr = s.semanticFromVector(ctx, embedding, channelK, category)
	}()
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = s.keywordFromVector(ctx, query, embedding, channelK, category)
	}()
	wg.Wait()

	if semanticErr != nil && keywordErr != nil {
		return nil, semanticErr
	}
	// One failed channel degrades hybrid to the surviving one.
	if semanticErr != nil {
		s.logger.Warn("semantic channel failed, using keyword results only", "err", semanticErr)
	}
	if keywordErr != nil {
		s.logger.Warn("keyword channel failed, using semantic results only", "err", keywordErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	monitor.AfterSemanticSearch(semanticHits)
	monitor.AfterKeywordSearch(keywordHits)

	// Merge the channels by chunk ID, keeping each chunk's best score from
	// each channel.
	combined := make(map[core.ID]*core.ScoredChunk)
	order := make([]core.ID, 0, len(semanticHits)+len(keywordHits))
	for _, hit := range semanticHits {
		combined[hit.Chunk.Id] = &core.ScoredChunk{
			Chunk:         hit.Chunk,
			SemanticScore: hit.SemanticScore,
		}
		order = append(order, hit.Chunk.Id)
	}
	for _, hit := range keywordHits {
		if existing, ok := combined[hit.Chunk.Id]; ok {
			existing.KeywordScore = hit.KeywordScore
			continue
		}
		combined[hit.Chunk.Id] = &core.ScoredChunk{
			Chunk:        hit.Chunk,
			KeywordScore: hit.KeywordScore,
		}
		order = append(order, hit.Chunk.Id)
	}

	var maxSemantic, maxKeyword float32
	for _, sc := range combined {
		if sc.SemanticScore > maxSemantic {
			maxSemantic = sc.SemanticScore
		}
		if sc.KeywordScore > maxKeyword {
			maxKeyword = sc.KeywordScore
		}
	}

	weight := s.semanticWeight
	results := make([]*core.ScoredChunk, 0, len(combined))
	for _, id := range order {
		sc := combined[id]
		var normSemantic, normKeyword float32
		if maxSemantic > 0 {
			normSemantic = sc.SemanticScore / maxSemantic
		}
		if maxKeyword > 0 {
			normKeyword = sc.KeywordScore / maxKeyword
		}
		sc.Score = weight*normSemantic + (1-weight)*normKeyword
		results = append(results, sc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
