package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/optimfinance/kbase/core"
	"github.com/optimfinance/kbase/storage"
)

func newTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func makeChunk(filename string, index int, content string) *core.Chunk {
	return &core.Chunk{
		Id:         core.NewChunkID(filename, index, content),
		Content:    content,
		Title:      content,
		Keywords:   []string{"portage"},
		Category:   "services",
		Intent:     "general",
		Filename:   filename,
		FileType:   "txt",
		ChunkIndex: index,
		Embedding:  []float32{1, 0, 0},
	}
}

func TestChunkBasics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunk := makeChunk("faq.txt", 0, "Le portage salarial expliqué")
	if err := repo.AddChunks(ctx, chunk); err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	retrieved, err := repo.GetChunk(ctx, chunk.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Content != "Le portage salarial expliqué" {
		t.Fatalf("Unexpected content: %q", retrieved.Content)
	}
	if retrieved.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set on write")
	}

	_, err = repo.GetChunk(ctx, core.ID(999))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddChunksValidates(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.AddChunks(context.Background(), &core.Chunk{Filename: "doc.txt"})
	if !errors.Is(err, core.ErrInvalidChunk) {
		t.Fatalf("Expected ErrInvalidChunk, got %v", err)
	}
}

func TestEmbeddingsNormalizedOnWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunk := makeChunk("faq.txt", 0, "contenu")
	chunk.Embedding = []float32{3, 4, 0}
	if err := repo.AddChunks(ctx, chunk); err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	retrieved, err := repo.GetChunk(ctx, chunk.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}

	var norm float32
	for _, v := range retrieved.Embedding {
		norm += v * v
	}
	if norm < 0.999 || norm > 1.001 {
		t.Fatalf("Expected unit-length embedding, squared norm %f", norm)
	}
}

func TestGetChunksByFilenameOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Insert out of order; retrieval sorts by chunk index.
	if err := repo.AddChunks(ctx,
		makeChunk("guide.txt", 2, "troisième partie"),
		makeChunk("guide.txt", 0, "première partie"),
		makeChunk("guide.txt", 1, "deuxième partie"),
		makeChunk("autre.txt", 0, "autre document"),
	); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	chunks, err := repo.GetChunksByFilename(ctx, "guide.txt")
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Fatalf("Expected index %d at position %d, got %d", i, i, chunk.ChunkIndex)
		}
	}

	none, err := repo.GetChunksByFilename(ctx, "inconnu.txt")
	if err != nil {
		t.Fatalf("Unexpected error for unknown filename: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no chunks, got %d", len(none))
	}
}

func TestDeleteByFilenameLeavesNoOrphans(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.AddChunks(ctx,
		makeChunk("guide.txt", 0, "première partie"),
		makeChunk("guide.txt", 1, "deuxième partie"),
		makeChunk("autre.txt", 0, "autre document"),
	); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	removed, err := repo.DeleteByFilename(ctx, "guide.txt")
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 removed, got %d", removed)
	}

	all, err := repo.AllChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(all) != 1 || all[0].Filename != "autre.txt" {
		t.Fatalf("Expected only autre.txt to remain, got %d chunks", len(all))
	}

	// Deleting an unknown filename is not an error.
	removed, err = repo.DeleteByFilename(ctx, "inconnu.txt")
	if err != nil || removed != 0 {
		t.Fatalf("Expected 0 removed without error, got %d, %v", removed, err)
	}
}

func TestReplaceDocument(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.AddChunks(ctx,
		makeChunk("guide.txt", 0, "ancienne version partie un"),
		makeChunk("guide.txt", 1, "ancienne version partie deux"),
		makeChunk("guide.txt", 2, "ancienne version partie trois"),
	); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	replacement := []*core.Chunk{
		makeChunk("guide.txt", 0, "nouvelle version partie un"),
		makeChunk("guide.txt", 1, "nouvelle version partie deux"),
	}
	removed, err := repo.ReplaceDocument(ctx, "guide.txt", replacement)
	if err != nil {
		t.Fatalf("Failed to replace document: %v", err)
	}
	if removed != 3 {
		t.Fatalf("Expected 3 removed, got %d", removed)
	}

	chunks, err := repo.GetChunksByFilename(ctx, "guide.txt")
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks after replacement, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if chunk.Content[:8] != "nouvelle" {
			t.Fatalf("Old chunk survived replacement: %q", chunk.Content)
		}
	}
}

func TestReplaceDocumentIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		makeChunk("faq.txt", 0, "question une"),
		makeChunk("faq.txt", 1, "question deux"),
	}
	if _, err := repo.ReplaceDocument(ctx, "faq.txt", chunks); err != nil {
		t.Fatalf("First replace failed: %v", err)
	}

	again := []*core.Chunk{
		makeChunk("faq.txt", 0, "question une"),
		makeChunk("faq.txt", 1, "question deux"),
	}
	removed, err := repo.ReplaceDocument(ctx, "faq.txt", again)
	if err != nil {
		t.Fatalf("Second replace failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 removed on re-ingestion, got %d", removed)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalChunks != 2 {
		t.Fatalf("Expected 2 chunks after re-ingestion, got %d", stats.TotalChunks)
	}
}

func TestUpdateChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunk := makeChunk("faq.txt", 0, "contenu initial")
	if err := repo.AddChunks(ctx, chunk); err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	stored, err := repo.GetChunk(ctx, chunk.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}

	stored.Embedding = []float32{0, 1, 0}
	if err := repo.UpdateChunks(ctx, stored); err != nil {
		t.Fatalf("Failed to update chunk: %v", err)
	}

	updated, err := repo.GetChunk(ctx, chunk.Id)
	if err != nil {
		t.Fatalf("Failed to get updated chunk: %v", err)
	}
	if updated.Embedding[1] != 1 {
		t.Fatalf("Expected updated embedding, got %v", updated.Embedding)
	}
	if !updated.InsertedAt.Equal(stored.InsertedAt) {
		t.Fatal("Expected InsertedAt preserved by update")
	}

	missing := makeChunk("faq.txt", 9, "inexistant")
	if err := repo.UpdateChunks(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	faq := makeChunk("faq.txt", 0, "question une")
	faq.Category = "faq"
	if err := repo.AddChunks(ctx,
		faq,
		makeChunk("guide.txt", 0, "première partie"),
		makeChunk("guide.txt", 1, "deuxième partie"),
	); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}

	if stats.TotalChunks != 3 {
		t.Fatalf("Expected 3 chunks, got %d", stats.TotalChunks)
	}
	if stats.TotalFiles != 2 {
		t.Fatalf("Expected 2 files, got %d", stats.TotalFiles)
	}
	if stats.Categories["faq"] != 1 || stats.Categories["services"] != 2 {
		t.Fatalf("Unexpected categories: %v", stats.Categories)
	}
	if stats.Filenames["guide.txt"] != 2 {
		t.Fatalf("Unexpected filenames: %v", stats.Filenames)
	}
}

func TestClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.AddChunks(ctx,
		makeChunk("faq.txt", 0, "question une"),
		makeChunk("guide.txt", 0, "première partie"),
	); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalChunks != 0 {
		t.Fatalf("Expected empty collection, got %d chunks", stats.TotalChunks)
	}
}

func TestClosedRepository(t *testing.T) {
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	repo.Close()

	if err := repo.AddChunks(context.Background(), makeChunk("faq.txt", 0, "contenu")); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed, got %v", err)
	}
	if _, err := repo.Stats(context.Background()); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed, got %v", err)
	}
}

func TestTranslateErr(t *testing.T) {
	if err := translateErr(nil); err != nil {
		t.Fatalf("Expected nil to stay nil, got %v", err)
	}

	// Storage sentinels pass through so errors.Is chains keep working.
	if err := translateErr(storage.ErrNotFound); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound to pass through, got %v", err)
	}
	if err := translateErr(context.Canceled); err != context.Canceled {
		t.Fatalf("Expected context.Canceled to pass through, got %v", err)
	}

	conflict := translateErr(badger.ErrConflict)
	if !errors.Is(conflict, storage.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", conflict)
	}

	raw := translateErr(errors.New("value log truncated"))
	if !errors.Is(raw, storage.ErrStorageFailed) {
		t.Fatalf("Expected ErrStorageFailed, got %v", raw)
	}
	if errors.Is(raw, storage.ErrConflict) {
		t.Fatalf("Expected generic failure not to map to ErrConflict, got %v", raw)
	}
}
