package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalBlobStoreRoundTrip(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "file://blobs/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	url, err := store.Put(ctx, "tenant_a", "contract.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "file://blobs/tenant_a/contract.pdf" {
		t.Fatalf("url = %q", url)
	}

	rc, err := store.Get(ctx, "tenant_a", "contract.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestLocalBlobStoreDelete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "file://blobs")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Put(ctx, "t", "a.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "t", "a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "t", "a.pdf"); err == nil {
		t.Fatal("blob must be gone")
	}
	if err := store.Delete(ctx, "t", "a.pdf"); err != nil {
		t.Fatalf("deleting a missing blob must not fail: %v", err)
	}
}

func TestLocalBlobStoreRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "file://blobs")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Put(ctx, "t", "../../etc/passwd", strings.NewReader("x")); err == nil {
		t.Fatal("path traversal must be rejected")
	}
	if _, err := store.Get(ctx, "..", "x"); err == nil {
		t.Fatal("traversing tenant id must be rejected")
	}
}
