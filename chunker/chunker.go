// Package chunker splits extracted document text into overlapping,
// size-bounded segments and derives each segment's metadata: an
// auto-generated title and a frequency-ranked keyword list.
package chunker

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/optimfinance/kbase/core"
)

// DefaultMaxKeywords bounds the keyword list when no limit is configured.
const DefaultMaxKeywords = 10

// minKeywordLength is the minimum token length for keyword extraction.
const minKeywordLength = 4

// titleMaxLength is the longest title kept verbatim; longer first sentences
// are truncated with an ellipsis.
const titleMaxLength = 100

// ErrInvalidWindow indicates a chunking window whose overlap is not strictly
// smaller than its size. This is a configuration error surfaced before any
// text is processed, never mid-chunk.
var ErrInvalidWindow = errors.New("invalid chunking window")

// Chunker splits normalized text into overlapping chunks.
type Chunker struct {
	maxKeywords int
	logger      *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxKeywords bounds the number of keywords extracted per chunk.
// Default is DefaultMaxKeywords.
func WithMaxKeywords(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxKeywords = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates a chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxKeywords: DefaultMaxKeywords,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Keep word characters (unicode letters and digits), whitespace, basic
	// punctuation, and currency or percent symbols; everything else is
	// stripped before chunking.
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-€$%]`)
	sentenceRe   = regexp.MustCompile(`[.!?]+`)
	keywordRe    = regexp.MustCompile(`[a-zA-ZÀ-ÖØ-öø-ÿ]{4,}`)
)

// Normalize collapses whitespace runs to single spaces and strips characters
// outside the permitted set.
func Normalize(text string) string {
	text = disallowedRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Chunk splits text into chunks of roughly size characters with the trailing
// overlap characters of each chunk carried into the next. Sentences are the
// accumulation unit: a chunk boundary never splits a sentence, so a chunk can
// exceed size when a single sentence does.
//
// The window must satisfy overlap < size; violations are reported as
// ErrInvalidWindow before any text is processed.
func (c *Chunker) Chunk(text, filename, category, intent string, size, overlap int) ([]*core.Chunk, error) {
	if size < 1 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidWindow, size, overlap)
	}

	normalized := Normalize(text)
	sentences := splitSentences(normalized)
	if len(sentences) == 0 {
		return nil, nil
	}

	fileType := fileTypeOf(filename)
	if category == "" {
		category = "general"
	}
	if intent == "" {
		intent = "general"
	}

	var chunks []*core.Chunk
	var current string

	emit := func(content string) {
		index := len(chunks)
		chunks = append(chunks, &core.Chunk{
			Id:         core.NewChunkID(filename, index, content),
			Content:    content,
			Title:      c.title(content, filename, index),
			Keywords:   c.Keywords(content),
			Category:   category,
			Intent:     intent,
			Filename:   filename,
			FileType:   fileType,
			ChunkIndex: index,
		})
	}

	for _, sentence := range sentences {
		// Size and overlap count runes, not bytes, so accented text gets
		// the same window as plain ASCII.
		if current != "" && utf8.RuneCountInString(current)+1+utf8.RuneCountInString(sentence) > size {
			emit(current)

			// Seed the next buffer with the tail of the previous one so
			// consecutive chunks share context across the boundary.
			// Rune-based slicing keeps the carry valid UTF-8.
			carry := []rune(current)
			if len(carry) > overlap {
				carry = carry[len(carry)-overlap:]
			}
			current = string(carry) + " " + sentence
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}

	// The tail is always emitted, whatever its size.
	if strings.TrimSpace(current) != "" {
		emit(current)
	}

	c.logger.Debug("chunked document",
		"filename", filename, "sentences", len(sentences), "chunks", len(chunks),
		"size", size, "overlap", overlap)

	return chunks, nil
}

// splitSentences breaks normalized text into sentence-like units on
// terminator runs, discarding empty units.
func splitSentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// Terms tokenizes text into lowercase word tokens of at least four letters
// with stop words removed.
func Terms(text string) []string {
	tokens := keywordRe.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) < minKeywordLength || stopWords[token] {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Keywords extracts up to maxKeywords tokens from content, most frequent
// first. Stop words are excluded and tokens shorter than four letters are
// ignored. Ties are broken alphabetically so the order is reproducible.
func (c *Chunker) Keywords(content string) []string {
	freq := make(map[string]int)
	for _, token := range Terms(content) {
		freq[token]++
	}

	ranked := make([]string, 0, len(freq))
	for token := range freq {
		ranked = append(ranked, token)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > c.maxKeywords {
		ranked = ranked[:c.maxKeywords]
	}
	return ranked
}

// title derives a chunk title from its first sentence, truncated to
// titleMaxLength characters with an ellipsis. An empty leading sentence
// falls back to "<filename> - Part <n>".
func (c *Chunker) title(content, filename string, index int) string {
	first := strings.TrimSpace(strings.SplitN(content, ".", 2)[0])

	runes := []rune(first)
	if len(runes) > titleMaxLength {
		first = string(runes[:titleMaxLength-3]) + "..."
	}

	if first == "" {
		return fmt.Sprintf("%s - Part %d", filename, index+1)
	}
	return first
}

func fileTypeOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
