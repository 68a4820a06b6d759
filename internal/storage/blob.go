package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists raw document files. Implementations return a URL that
// the document record carries as its file reference.
type BlobStore interface {
	Put(ctx context.Context, tenantID, name string, r io.Reader) (string, error)
	Get(ctx context.Context, tenantID, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, tenantID, name string) error
}

// LocalBlobStore stores blobs on the local filesystem, one directory per
// tenant under the base path.
type LocalBlobStore struct {
	basePath string
	baseURL  string
}

// NewLocalBlobStore creates a LocalBlobStore rooted at basePath
func NewLocalBlobStore(basePath, baseURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalBlobStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put writes a blob and returns its URL
func (s *LocalBlobStore) Put(ctx context.Context, tenantID, name string, r io.Reader) (string, error) {
	path, err := s.resolve(tenantID, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create tenant directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, tenantID, name), nil
}

// Get opens a blob for reading
func (s *LocalBlobStore) Get(ctx context.Context, tenantID, name string) (io.ReadCloser, error) {
	path, err := s.resolve(tenantID, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalBlobStore) Delete(ctx context.Context, tenantID, name string) error {
	path, err := s.resolve(tenantID, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve builds the on-disk path, rejecting names that escape the base
func (s *LocalBlobStore) resolve(tenantID, name string) (string, error) {
	path := filepath.Join(s.basePath, tenantID, name)
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return path, nil
}
