package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NewChunkID generates the ID for a chunk from its provenance and content.
// The filename and position are part of the hash input so identical passages
// appearing in different documents get distinct IDs.
func NewChunkID(filename string, chunkIndex int, content string) ID {
	return IDFromContent(filename + ":" + strconv.Itoa(chunkIndex) + ":" + content)
}

// Chunk is the atomic retrievable unit of the knowledge base: a bounded
// segment of source-document text plus classification and provenance metadata.
type Chunk struct {
	Id         ID
	Content    string
	Title      string    // First sentence of the content, truncated to 100 chars
	Keywords   []string  // Extracted tokens, most frequent first
	Category   string    // Classification tag supplied at ingestion time
	Intent     string    // Classification tag supplied at ingestion time
	Filename   string    // Source document name
	FileType   string    // Normalized extension, no leading dot
	ChunkIndex int       // 0-based position within the document's chunk sequence
	Embedding  []float32 // Dense vector computed from EmbeddingText()
	InsertedAt time.Time // When the chunk was written to storage
}

// EmbeddingText returns the exact string the chunk's embedding is computed
// from. Re-embedding must always go through this method so stored vectors and
// query-time vectors stay comparable.
func (c *Chunk) EmbeddingText() string {
	return c.Title + ": " + c.Content
}

// VectorMatch is a nearest-neighbor result from the vector store.
// Distance is a cosine distance in [0, 2]; 0 means identical direction.
type VectorMatch struct {
	Chunk    *Chunk
	Distance float32
}

// ScoredChunk is a retrieval result with its per-channel and final scores.
type ScoredChunk struct {
	Chunk *Chunk

	// SemanticScore is the raw cosine similarity from the semantic channel,
	// 0 if the chunk was only found by keyword search.
	SemanticScore float32

	// KeywordScore is the raw lexical overlap score from the keyword channel,
	// 0 if the chunk was only found by semantic search.
	KeywordScore float32

	// Score is the final ranking score. For single-channel searches it equals
	// that channel's raw score; for hybrid search it is the weighted sum of
	// the normalized channel scores.
	Score float32
}

// SearchMode selects the retrieval strategy.
type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
	SearchModeHybrid   SearchMode = "hybrid"
)

// ParseSearchMode parses a mode string, defaulting to hybrid for empty input.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case SearchModeSemantic, SearchModeKeyword, SearchModeHybrid:
		return SearchMode(s), nil
	case "":
		return SearchModeHybrid, nil
	}
	return "", ErrInvalidSearchMode
}

// SearchResponse is the full result of a search request.
type SearchResponse struct {
	Query      string
	Intent     string // Advisory intent label, does not gate retrieval
	Results    []*ScoredChunk
	NumResults int
}

// StoreStats summarizes the contents of the chunk collection.
// The maps count chunks per category, file type, and filename.
type StoreStats struct {
	TotalChunks int
	Categories  map[string]int
	FileTypes   map[string]int
	Filenames   map[string]int
	TotalFiles  int
}
