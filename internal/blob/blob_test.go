package blob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDocumentKeyShape(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	key := DocumentKey("app-1", "Pay Stub.PDF", now)
	if !strings.HasPrefix(key, "documents/app-1/") {
		t.Fatalf("key = %q", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("extension not normalized: %q", key)
	}
}

func TestKeyExtensionFallsBackToBin(t *testing.T) {
	now := time.Now()
	if key := DocumentKey("app-1", "no-extension", now); !strings.HasSuffix(key, ".bin") {
		t.Fatalf("key = %q", key)
	}
	if key := LogoKey("agent-1", "", now); !strings.HasSuffix(key, ".bin") {
		t.Fatalf("key = %q", key)
	}
}

func TestDiskStorePutAndURL(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "https://rentflow.example/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := store.Put(context.Background(), "documents/app-1/doc.pdf", "application/pdf", bytes.NewReader([]byte("content")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://rentflow.example/uploads/documents/app-1/doc.pdf" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(root, "documents", "app-1", "doc.pdf"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("data = %q", data)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "https://rentflow.example/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, key := range []string{"../escape.txt", "/absolute.txt", "."} {
		if _, err := store.Put(context.Background(), key, "", bytes.NewReader(nil)); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestMemStoreRoundtrip(t *testing.T) {
	store := NewMemStore("https://cdn.example")
	url, err := store.Put(context.Background(), "k", "", bytes.NewReader([]byte("v")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example/k" {
		t.Fatalf("url = %q", url)
	}
	data, ok := store.Get("k")
	if !ok || string(data) != "v" {
		t.Fatalf("Get = %q, %v", data, ok)
	}
}
