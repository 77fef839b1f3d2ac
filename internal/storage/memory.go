package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory BlobStore and Prober used in tests and local
// development. It records deletes so tests can assert blob lifecycle.
type MemoryStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	types   map[string]string
	baseURL string

	Deleted []string
	// FailDeletes makes every Delete return an error, for atomicity tests.
	FailDeletes bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: "https://blobs.test",
	}
}

func (s *MemoryStore) Store(ctx context.Context, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("%s/%s", s.baseURL, uuid.NewString())
	s.blobs[url] = data
	s.types[url] = contentType
	return url, nil
}

func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDeletes {
		return fmt.Errorf("memory store: delete failed")
	}
	if _, ok := s.blobs[url]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, url)
	delete(s.types, url)
	s.Deleted = append(s.Deleted, url)
	return nil
}

func (s *MemoryStore) Probe(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contentType, ok := s.types[url]
	if !ok {
		return "", ErrBlobNotFound
	}
	return contentType, nil
}

// Put seeds a blob at a fixed URL, for tests that reference external images.
func (s *MemoryStore) Put(url, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[url] = data
	s.types[url] = contentType
}

// Has reports whether a blob is still stored.
func (s *MemoryStore) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[url]
	return ok
}
