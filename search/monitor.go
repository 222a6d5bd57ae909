package search

import (
	"github.com/optimfinance/kbase/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, mode core.SearchMode)
	AfterIntentClassification(intent string)
	AfterSemanticSearch(results []*core.ScoredChunk)
	AfterKeywordSearch(results []*core.ScoredChunk)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ core.SearchMode)         {}
func (n *noopMonitor) AfterIntentClassification(_ string)        {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.ScoredChunk) {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.ScoredChunk)  {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)             {}
