package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalArchive keeps volume artifacts on the local filesystem, one
// directory per document. It is the default backend for development;
// deployments point STORAGE_TYPE at S3 instead.
type LocalArchive struct {
	root string
}

// NewLocalArchive creates an archive rooted at the given directory,
// making it if it does not exist.
func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

// Upload writes an artifact into the document's directory. A failed
// write never leaves a truncated artifact behind.
func (a *LocalArchive) Upload(ctx context.Context, docID uuid.UUID, filename string, data io.Reader) (string, error) {
	storagePath := artifactPath(docID, filename)
	fullPath := filepath.Join(a.root, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return storagePath, nil
}

// Download opens an archived artifact for reading.
func (a *LocalArchive) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(a.root, storagePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", storagePath)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// Delete removes an artifact. An artifact that is already gone is not
// an error; re-conversion cleanup may follow an earlier partial upload.
func (a *LocalArchive) Delete(ctx context.Context, storagePath string) error {
	if err := os.Remove(filepath.Join(a.root, storagePath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}
