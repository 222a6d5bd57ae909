package mock

import (
	"context"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/core"
)

// MockAnswerer is a test double for ai.Answerer.
// It allows custom behavior injection via function fields.
type MockAnswerer struct {
	// GenerateAnswerFunc is called by GenerateAnswer if set.
	// If nil, uses default canned behavior.
	GenerateAnswerFunc func(ctx context.Context, query string, results []*core.ScoredChunk, intent string) (*ai.Answer, error)

	callCount int
}

// NewMockAnswerer creates a mock answerer with default canned behavior.
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{}
}

// GenerateAnswer returns a canned answer citing the given chunks as sources.
func (m *MockAnswerer) GenerateAnswer(ctx context.Context, query string, results []*core.ScoredChunk, intent string) (*ai.Answer, error) {
	m.callCount++

	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, query, results, intent)
	}

	sources := make([]core.ID, 0, len(results))
	for _, result := range results {
		if result.Chunk != nil {
			sources = append(sources, result.Chunk.Id)
		}
	}

	return &ai.Answer{
		Response: "mock answer for: " + query,
		Sources:  sources,
		Success:  true,
	}, nil
}

// CallCount returns the number of times GenerateAnswer was called.
func (m *MockAnswerer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerer) Reset() {
	m.callCount = 0
	m.GenerateAnswerFunc = nil
}
