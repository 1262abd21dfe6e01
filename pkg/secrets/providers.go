package secrets

import (
	"context"
	"os"
	"strings"
	"sync"
)

// envPrefix is prepended to normalized keys when looking up environment
// variables.
const envPrefix = "STACKHOST_SECRET_"

// EnvProvider reads secrets from environment variables. The key
// "db-password" maps to STACKHOST_SECRET_DB_PASSWORD; keys that are
// already environment variable names are tried verbatim as a fallback.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment provider with the default prefix.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{prefix: envPrefix}
}

// NewEnvProviderWithPrefix creates an environment provider with a custom
// prefix.
func NewEnvProviderWithPrefix(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string {
	return "env"
}

func (p *EnvProvider) Get(ctx context.Context, key string) (string, error) {
	if v, ok := os.LookupEnv(p.envName(key)); ok {
		return v, nil
	}
	if v, ok := os.LookupEnv(key); ok {
		return v, nil
	}
	return "", ErrSecretNotFound
}

func (p *EnvProvider) envName(key string) string {
	normalized := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	return p.prefix + normalized
}

// StaticProvider serves secrets from an in-memory map. It backs tests and
// pre-loaded secret files.
type StaticProvider struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewStaticProvider creates a static provider over the given map.
func NewStaticProvider(secrets map[string]string) *StaticProvider {
	copied := make(map[string]string, len(secrets))
	for k, v := range secrets {
		copied[k] = v
	}
	return &StaticProvider{secrets: copied}
}

func (p *StaticProvider) Name() string {
	return "static"
}

func (p *StaticProvider) Get(ctx context.Context, key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.secrets[key]; ok {
		return v, nil
	}
	return "", ErrSecretNotFound
}

// Set stores a secret value.
func (p *StaticProvider) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets[key] = value
}
