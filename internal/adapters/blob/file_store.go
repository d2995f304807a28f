package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// FileStore keeps blobs as files in a local directory
type FileStore struct {
	dir     string
	baseURL string
}

// NewFileStore creates a store rooted at dir. An empty baseURL yields file:// URLs.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	if baseURL == "" {
		baseURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &FileStore{dir: abs, baseURL: baseURL}, nil
}

// Ensure it implements the interface
var _ ports.BlobStore = (*FileStore)(nil)

// Put writes body to dir/key atomically and returns its URL
func (s *FileStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("blob %s: expected %d bytes, got %d", key, size, written)
	}

	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return "", fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return s.baseURL + url.PathEscape(key), nil
}

// Path returns the local path of key
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}
