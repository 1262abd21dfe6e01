// Package local implements a local filesystem snapshot backend.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/architect-io/stackhost/pkg/state/backend"
)

func init() {
	backend.Register("local", NewBackend)
}

// Backend implements the snapshot backend interface for local filesystem
// storage.
type Backend struct {
	basePath string
}

// NewBackend creates a new local backend.
func NewBackend(settings map[string]string) (backend.Backend, error) {
	path := settings["path"]
	if path == "" {
		// Default to ~/.stackhost/state
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".stackhost", "state")
	}

	// Ensure base path exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &Backend{basePath: path}, nil
}

func (b *Backend) Type() string {
	return "local"
}

func (b *Backend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := b.fullPath(path)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	return file, nil
}

func (b *Backend) Write(ctx context.Context, path string, data io.Reader) error {
	fullPath := b.fullPath(path)

	// Ensure parent directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write to temp file first, then rename for atomicity
	tempFile, err := os.CreateTemp(dir, ".stackhost-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	_, err = io.Copy(tempFile, data)
	if closeErr := tempFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	fullPath := b.fullPath(path)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Idempotent
		}
		return fmt.Errorf("failed to delete %s: %w", fullPath, err)
	}

	return nil
}

func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := b.fullPath(prefix)

	var paths []string
	err := filepath.Walk(fullPrefix, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			// Return path relative to base
			relPath, _ := filepath.Rel(b.basePath, path)
			paths = append(paths, filepath.ToSlash(relPath))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", fullPrefix, err)
	}

	return paths, nil
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := b.fullPath(path)

	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", fullPath, err)
	}

	return true, nil
}

func (b *Backend) fullPath(path string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(path))
}
