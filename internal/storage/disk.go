package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore keeps blobs on the local filesystem and maps them to public
// URLs under a configured base. Object keys are random; the extension is
// derived from the content type so static serving gets the MIME right.
type DiskStore struct {
	basePath string
	baseURL  string
}

func NewDiskStore(basePath, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: %w", err)
	}
	return &DiskStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *DiskStore) Store(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key := uuid.NewString() + extensionFor(contentType)
	target := filepath.Join(s.basePath, key)

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("disk store: create: %w", err)
	}

	size, err := io.Copy(file, body)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("disk store: write: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("disk store: close: %w", closeErr)
	}
	if size == 0 {
		_ = os.Remove(target)
		return "", fmt.Errorf("disk store: empty body")
	}

	return s.baseURL + "/" + key, nil
}

func (s *DiskStore) Delete(ctx context.Context, url string) error {
	// Externally hosted URLs are not ours to delete.
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: url %q not owned by this store", ErrBlobNotFound, url)
	}

	err := os.Remove(filepath.Join(s.basePath, key))
	if os.IsNotExist(err) {
		return ErrBlobNotFound
	}
	return err
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ""
	}
}
