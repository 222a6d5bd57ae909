// Package extract turns uploaded files into raw text for the ingestion
// pipeline. Plain text, Markdown, CSV, and JSON files are handled here;
// binary formats (pdf, docx) are the responsibility of an upstream
// conversion step and are reported as unsupported.
package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// maxCSVRows caps how many data rows of a CSV file are rendered, so a huge
// export cannot blow up a single document's chunk count.
const maxCSVRows = 1000

// Extractor produces raw text from a file on disk.
type Extractor interface {
	// Extract reads the file and returns its text content.
	// fileType is the normalized extension without the leading dot.
	Extract(path, fileType string) (string, error)

	// Supported reports whether the file type can be extracted.
	Supported(fileType string) bool
}

// FileExtractor implements Extractor for local files.
type FileExtractor struct {
	logger *slog.Logger
}

var _ Extractor = (*FileExtractor)(nil)

// NewFileExtractor creates a file extractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{
		logger: slog.Default().With("component", "extractor"),
	}
}

// NormalizeFileType lowercases an extension and strips the leading dot.
func NormalizeFileType(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// FileTypeOf returns the normalized file type of a filename.
func FileTypeOf(filename string) string {
	return NormalizeFileType(filepath.Ext(filename))
}

// Supported reports whether the file type can be extracted.
func (e *FileExtractor) Supported(fileType string) bool {
	switch NormalizeFileType(fileType) {
	case "txt", "text", "md", "markdown", "json", "csv":
		return true
	}
	return false
}

// Extract reads the file and returns its text content.
func (e *FileExtractor) Extract(path, fileType string) (string, error) {
	var (
		text string
		err  error
	)

	switch NormalizeFileType(fileType) {
	case "txt", "text":
		text, err = e.extractPlain(path)
	case "md", "markdown":
		text, err = e.extractMarkdown(path)
	case "json":
		text, err = e.extractJSON(path)
	case "csv":
		text, err = e.extractCSV(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileType)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func (e *FileExtractor) extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return string(data), nil
}

var (
	mdCodeBlockRe  = regexp.MustCompile("(?s)```.*?```")
	mdHeaderRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBoldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalicRe     = regexp.MustCompile(`\*(.*?)\*`)
	mdLinkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdInlineCodeRe = regexp.MustCompile("`([^`]+)`")
)

// extractMarkdown strips formatting so the chunker sees clean prose.
func (e *FileExtractor) extractMarkdown(path string) (string, error) {
	text, err := e.extractPlain(path)
	if err != nil {
		return "", err
	}

	text = mdCodeBlockRe.ReplaceAllString(text, "")
	text = mdHeaderRe.ReplaceAllString(text, "")
	text = mdBoldRe.ReplaceAllString(text, "$1")
	text = mdItalicRe.ReplaceAllString(text, "$1")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = mdInlineCodeRe.ReplaceAllString(text, "$1")

	return text, nil
}

// extractCSV renders the header as a column list and each row as
// "column: value" pairs so lexical search can match field names.
func (e *FileExtractor) extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	rows := records[1:]
	if len(rows) > maxCSVRows {
		e.logger.Warn("csv truncated", "path", path, "rows", len(rows), "limit", maxCSVRows)
		rows = rows[:maxCSVRows]
	}

	var b strings.Builder
	b.WriteString("Columns: " + strings.Join(headers, ", ") + ".\n")
	for _, row := range rows {
		parts := make([]string, 0, len(row))
		for i, value := range row {
			if value == "" || i >= len(headers) {
				continue
			}
			parts = append(parts, headers[i]+": "+value)
		}
		if len(parts) > 0 {
			b.WriteString(strings.Join(parts, " | ") + ".\n")
		}
	}
	return b.String(), nil
}

func (e *FileExtractor) extractJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var b strings.Builder
	renderJSON(&b, value, "")
	return b.String(), nil
}

// renderJSON flattens a decoded JSON value into "key: value" lines.
// Object keys are sorted so rendering is deterministic.
func renderJSON(b *strings.Builder, value any, prefix string) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v[k].(type) {
			case map[string]any, []any:
				b.WriteString(prefix + k + ":\n")
				renderJSON(b, v[k], prefix+"  ")
			default:
				fmt.Fprintf(b, "%s%s: %v.\n", prefix, k, v[k])
			}
		}
	case []any:
		for _, item := range v {
			renderJSON(b, item, prefix)
		}
	default:
		fmt.Fprintf(b, "%s%v.\n", prefix, v)
	}
}
