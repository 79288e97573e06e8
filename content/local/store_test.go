package local

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/crownheights/siteadmin/content"
)

func setupTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "fallback.db"), opts...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestListMissingSnapshotIsEmpty(t *testing.T) {
	s := setupTestStore(t)
	docs, err := s.List(context.Background(), content.Articles)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %v, want empty non-nil slice", docs)
	}
}

func TestListCorruptSnapshotIsEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, raw := range []string{"{broken", `{"id":"1"}`, "null"} {
		if err := s.SetRaw(ctx, Key(content.Gallery), raw); err != nil {
			t.Fatalf("SetRaw failed: %v", err)
		}
		docs, err := s.List(ctx, content.Gallery)
		if err != nil {
			t.Fatalf("List(%q) failed: %v", raw, err)
		}
		if len(docs) != 0 {
			t.Errorf("List(%q) = %v, want empty", raw, docs)
		}
	}
}

func TestWriteOnCorruptSnapshotFails(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SetRaw(ctx, Key(content.Articles), "{broken"); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	_, err := s.Create(ctx, content.Articles, content.Document{"title": "x"})
	if !errors.Is(err, content.ErrCorruptSnapshot) {
		t.Errorf("Create err = %v, want ErrCorruptSnapshot", err)
	}
}

func TestCreateGeneratesTimestampID(t *testing.T) {
	s := setupTestStore(t, WithClock(fixedClock(1767261600000)))
	ctx := context.Background()

	id1, err := s.Create(ctx, content.Gallery, content.Document{"src": "a", "timestamp": "2026-01-01T10:00:00.000Z"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id1 != "1767261600000" {
		t.Errorf("id = %q, want 1767261600000", id1)
	}
	id2, err := s.Create(ctx, content.Gallery, content.Document{"src": "b", "timestamp": "2026-01-01T10:00:00.000Z"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id2 == id1 {
		t.Errorf("second id %q collides with first", id2)
	}

	id3, err := s.Create(ctx, content.Gallery, content.Document{"id": "given", "src": "c"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id3 != "given" {
		t.Errorf("id = %q, want caller-supplied id", id3)
	}
}

func TestCreatePrependsArticlesAppendsGallery(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := s.Create(ctx, content.Articles, content.Document{"id": id, "date": "2026-01-01"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := s.Create(ctx, content.Gallery, content.Document{"id": id, "timestamp": "2026-01-01T00:00:00.000Z"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	articles, _ := s.List(ctx, content.Articles)
	if articles[0].ID() != "b" || articles[1].ID() != "a" {
		t.Errorf("articles order = [%s %s], want [b a]", articles[0].ID(), articles[1].ID())
	}
	gallery, _ := s.List(ctx, content.Gallery)
	if gallery[0].ID() != "a" || gallery[1].ID() != "b" {
		t.Errorf("gallery order = [%s %s], want [a b]", gallery[0].ID(), gallery[1].ID())
	}
}

func TestListOrdersByDateDescending(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	raw := `[{"id":"1","date":"2026-01-01"},{"id":"2","date":"2026-06-01"},{"id":"3","date":"2026-03-01"}]`
	if err := s.SetRaw(ctx, Key(content.Articles), raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	docs, err := s.List(ctx, content.Articles)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var got []string
	for _, d := range docs {
		got = append(got, d.ID())
	}
	want := []string{"2", "3", "1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateMergesInPlace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, content.Articles, content.Document{
		"title":     "Original",
		"summary":   "old",
		"createdAt": "2026-01-01T00:00:00.000Z",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.Update(ctx, content.Articles, id, content.Document{"summary": "new", "id": "ignored"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := s.Get(ctx, content.Articles, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["summary"] != "new" {
		t.Errorf("summary = %v, want new", got["summary"])
	}
	if got["title"] != "Original" {
		t.Errorf("title = %v, want Original", got["title"])
	}
	if got["createdAt"] != "2026-01-01T00:00:00.000Z" {
		t.Errorf("createdAt = %v, want it preserved", got["createdAt"])
	}
	if got.ID() != id {
		t.Errorf("id = %q, want %q", got.ID(), id)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, content.Articles, content.Document{"id": "1", "title": "keep"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before, _ := s.Raw(ctx, Key(content.Articles))

	if err := s.Update(ctx, content.Articles, "nope", content.Document{"title": "x"}); err != nil {
		t.Fatalf("Update of unknown id should succeed, got %v", err)
	}
	after, _ := s.Raw(ctx, Key(content.Articles))
	if before != after {
		t.Errorf("snapshot changed: %s -> %s", before, after)
	}
}

func TestDeleteRemovesAllMatches(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	raw := `[{"id":"dup","src":"a"},{"id":"x","src":"b"},{"id":"dup","src":"c"}]`
	if err := s.SetRaw(ctx, Key(content.Gallery), raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if err := s.Delete(ctx, content.Gallery, "dup"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	docs, _ := s.List(ctx, content.Gallery)
	if len(docs) != 1 || docs[0].ID() != "x" {
		t.Errorf("docs = %v, want only x", docs)
	}

	if err := s.Delete(ctx, content.Gallery, "dup"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	docs, _ = s.List(ctx, content.Gallery)
	if len(docs) != 1 {
		t.Errorf("idempotent delete changed collection: %v", docs)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Get(context.Background(), content.Articles, "nonexistent")
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("expected content.ErrNotFound, got %v", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, content.Articles, content.Document{"id": "1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	docs, _ := s.List(ctx, content.Gallery)
	if len(docs) != 0 {
		t.Errorf("gallery should be empty, got %v", docs)
	}
	if Key(content.Articles) != "crownheights_articles" || Key(content.Gallery) != "crownheights_gallery" {
		t.Errorf("unexpected keys %q %q", Key(content.Articles), Key(content.Gallery))
	}
}
