package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	key := "attachments/2026/08/abc123.pdf"
	payload := []byte("%PDF-1.7 test payload")

	if err := store.Save(ctx, key, bytes.NewReader(payload), int64(len(payload)), "application/pdf"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("expected object to exist after save")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists after delete: %v", err)
	}
	if exists {
		t.Fatal("expected object to be gone after delete")
	}
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if err := store.Delete(context.Background(), "attachments/2026/08/missing.jpg"); err != nil {
		t.Fatalf("expected nil for missing object, got %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "/etc/passwd", "a/../../b"} {
		if err := store.Save(ctx, key, bytes.NewReader([]byte("x")), 1, ""); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestObjectKeyLayout(t *testing.T) {
	cfg := &Config{}
	key := cfg.ObjectKey("abc-123", "letter to mom.pdf", 2026, 8)
	if key != "attachments/2026/08/abc-123.pdf" {
		t.Fatalf("unexpected key: %s", key)
	}
	thumb := cfg.ThumbnailKey("abc-123", 2026, 8)
	if thumb != "attachments/2026/08/abc-123_thumb.jpg" {
		t.Fatalf("unexpected thumbnail key: %s", thumb)
	}
}
