package core

import (
	"errors"
	"testing"
)

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("le portage salarial")
	b := IDFromContent("le portage salarial")
	if a != b {
		t.Fatalf("Expected identical IDs for identical content, got %d and %d", a, b)
	}

	c := IDFromContent("le portage salarial.")
	if a == c {
		t.Fatal("Expected different IDs for different content")
	}
}

func TestNewChunkIDUsesPosition(t *testing.T) {
	a := NewChunkID("faq.txt", 0, "same passage")
	b := NewChunkID("faq.txt", 1, "same passage")
	if a == b {
		t.Fatal("Expected different IDs for the same passage at different positions")
	}

	c := NewChunkID("other.txt", 0, "same passage")
	if a == c {
		t.Fatal("Expected different IDs for the same passage in different files")
	}

	if a != NewChunkID("faq.txt", 0, "same passage") {
		t.Fatal("Expected chunk IDs to be deterministic")
	}
}

func TestEmbeddingText(t *testing.T) {
	chunk := &Chunk{Title: "Les tarifs", Content: "Nos tarifs commencent à 99 euros"}
	got := chunk.EmbeddingText()
	want := "Les tarifs: Nos tarifs commencent à 99 euros"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		input   string
		want    SearchMode
		wantErr bool
	}{
		{"semantic", SearchModeSemantic, false},
		{"keyword", SearchModeKeyword, false},
		{"hybrid", SearchModeHybrid, false},
		{"", SearchModeHybrid, false},
		{"fuzzy", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSearchMode(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSearchMode) {
				t.Fatalf("ParseSearchMode(%q): expected ErrInvalidSearchMode, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSearchMode(%q): unexpected error %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseSearchMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateChunk(t *testing.T) {
	valid := &Chunk{Content: "content", Filename: "doc.txt"}
	if err := ValidateChunk(valid); err != nil {
		t.Fatalf("Expected valid chunk, got %v", err)
	}

	// Embedding and InsertedAt are populated later in the pipeline.
	if valid.Embedding != nil || !valid.InsertedAt.IsZero() {
		t.Fatal("Test fixture should not preset embedding or timestamp")
	}

	tests := []struct {
		name  string
		chunk *Chunk
		want  error
	}{
		{"nil chunk", nil, ErrInvalidChunk},
		{"empty content", &Chunk{Filename: "doc.txt"}, ErrEmptyContent},
		{"empty filename", &Chunk{Content: "content"}, ErrEmptyFilename},
		{"negative index", &Chunk{Content: "content", Filename: "doc.txt", ChunkIndex: -1}, ErrNegativeChunkIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInvalidChunk) {
				t.Fatalf("Expected error to wrap ErrInvalidChunk, got %v", err)
			}
		})
	}
}
