package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/blobs")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	url, err := store.Store(ctx, bytes.NewReader([]byte("jpeg-bytes")), "image/jpeg")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/blobs/") {
		t.Errorf("url = %q, want base prefix", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("url = %q, want .jpg extension", url)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, url); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("second delete err = %v, want ErrBlobNotFound", err)
	}
}

func TestDiskStoreRejectsEmptyBody(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/blobs")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	if _, err := store.Store(context.Background(), bytes.NewReader(nil), "image/png"); err == nil {
		t.Fatal("Store accepted an empty body")
	}
}

func TestDiskStoreDeleteForeignURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/blobs")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"different host", "https://elsewhere.example/photo.jpg"},
		{"path traversal", "http://localhost:8080/blobs/../secrets.txt"},
		{"nested key", "http://localhost:8080/blobs/a/b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Delete(context.Background(), tt.url); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("Delete(%q) = %v, want ErrBlobNotFound", tt.url, err)
			}
		})
	}
}

func TestMemoryStoreRecordsDeletes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	url, err := store.Store(ctx, bytes.NewReader([]byte("png-bytes")), "image/png")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	contentType, err := store.Probe(ctx, url)
	if err != nil || contentType != "image/png" {
		t.Fatalf("Probe = (%q, %v), want (image/png, nil)", contentType, err)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.Deleted) != 1 || store.Deleted[0] != url {
		t.Errorf("Deleted = %v, want [%s]", store.Deleted, url)
	}
	if _, err := store.Probe(ctx, url); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Probe after delete err = %v, want ErrBlobNotFound", err)
	}
}
