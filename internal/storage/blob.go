// Package storage abstracts the object-storage collaborator. Entities only
// ever hold public URLs; the blob lifecycle is tied to the owning field.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrNotAnImage   = errors.New("url does not serve an image")
)

// BlobStore writes and removes image blobs.
type BlobStore interface {
	// Store persists the blob and returns its public URL.
	Store(ctx context.Context, body io.Reader, contentType string) (string, error)
	// Delete removes the blob behind a URL previously returned by Store.
	Delete(ctx context.Context, url string) error
}

// Prober checks that an externally referenced URL exists and serves an
// image MIME type.
type Prober interface {
	Probe(ctx context.Context, url string) (string, error)
}

// HTTPProber probes URLs with a plain GET, per the storage contract.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Probe fetches the URL and returns its content type. Missing resources map
// to ErrBlobNotFound, non-image types to ErrNotAnImage.
func (p *HTTPProber) Probe(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrBlobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotAnImage
	}
	return contentType, nil
}
