// Package secrets resolves secret references of the form ${secret:key} or
// ${secret:provider:key} against pluggable providers. Stack definitions use
// it so secret material stays out of application definition files.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrSecretNotFound is returned when no provider holds the requested key.
var ErrSecretNotFound = errors.New("secret not found")

// Provider supplies secret values from one backing source.
type Provider interface {
	// Name returns the provider identifier (e.g., "env", "static").
	Name() string

	// Get returns the value for key, or ErrSecretNotFound.
	Get(ctx context.Context, key string) (string, error)
}

// Manager looks secrets up across providers in priority order and caches
// resolved values for the lifetime of the manager.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	priority  []string
	cache     map[string]string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		cache:     make(map[string]string),
	}
}

// DefaultManager creates a manager with the environment provider registered.
func DefaultManager() *Manager {
	m := NewManager()
	m.RegisterProvider(NewEnvProvider())
	return m
}

// RegisterProvider adds a provider. Registration order sets the default
// lookup priority.
func (m *Manager) RegisterProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.providers[p.Name()]; !exists {
		m.priority = append(m.priority, p.Name())
	}
	m.providers[p.Name()] = p
}

// SetPriority overrides the provider lookup order.
func (m *Manager) SetPriority(order []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priority = append([]string(nil), order...)
}

// Get returns the value for key from the first provider that holds it.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	if v, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return v, nil
	}
	priority := append([]string(nil), m.priority...)
	m.mu.RUnlock()

	for _, name := range priority {
		v, err := m.GetFromProvider(ctx, name, key)
		if err == nil {
			m.mu.Lock()
			m.cache[key] = v
			m.mu.Unlock()
			return v, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
}

// GetFromProvider returns the value for key from one named provider.
func (m *Manager) GetFromProvider(ctx context.Context, provider, key string) (string, error) {
	m.mu.RLock()
	p, ok := m.providers[provider]
	m.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown secret provider %q", provider)
	}
	return p.Get(ctx, key)
}

// ClearCache drops all cached values.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]string)
}

const refPrefix = "${secret:"

// ResolveString expands every secret reference embedded in s. Strings
// without references come back unchanged.
func (m *Manager) ResolveString(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, refPrefix) {
		return s, nil
	}

	var out strings.Builder
	rest := s
	for {
		start := strings.Index(rest, refPrefix)
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+len(refPrefix):]

		end := strings.Index(rest, "}")
		if end < 0 {
			return "", fmt.Errorf("unclosed secret reference in %q", s)
		}

		ref := rest[:end]
		rest = rest[end+1:]

		var value string
		var err error
		if provider, key, ok := strings.Cut(ref, ":"); ok {
			value, err = m.GetFromProvider(ctx, provider, key)
		} else {
			value, err = m.Get(ctx, ref)
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve secret %q: %w", ref, err)
		}
		out.WriteString(value)
	}
}
