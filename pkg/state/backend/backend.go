// Package backend defines the storage backend contract for stack output
// snapshots.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrNotFound is returned when a snapshot path does not exist.
var ErrNotFound = errors.New("not found")

// Backend is a flat key-value blob store addressed by slash-separated paths.
type Backend interface {
	// Type returns the backend identifier (e.g., "local", "s3")
	Type() string

	// Read returns the content at path, or ErrNotFound.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write stores the content at path, replacing any existing content.
	Write(ctx context.Context, path string, data io.Reader) error

	// Delete removes the content at path. Deleting a missing path is not
	// an error.
	Delete(ctx context.Context, path string) error

	// List returns the paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether content exists at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	// Type is the backend type (e.g., "local", "s3")
	Type string

	// Settings are backend-specific options (e.g., "path", "bucket").
	Settings map[string]string
}

// Factory creates a backend from its settings.
type Factory func(settings map[string]string) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory. Called from backend package init().
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Create instantiates a backend from configuration.
func Create(config Config) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[config.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown state backend %q (available: %v)", config.Type, names())
	}
	return factory(config.Settings)
}

func names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []string
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
