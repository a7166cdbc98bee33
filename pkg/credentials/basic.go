package credentials

import (
	"fmt"
	"os"
	"sync"
)

// StaticResolver is a simple in-memory credential resolver.
// It is filled from the configuration object or used directly in tests.
type StaticResolver struct {
	name  string
	store map[string]string
	mu    sync.RWMutex
}

// NewStaticResolver creates a resolver holding a copy of secrets
func NewStaticResolver(name string, secrets map[string]string) *StaticResolver {
	r := &StaticResolver{
		name:  name,
		store: make(map[string]string, len(secrets)),
	}
	for k, v := range secrets {
		if v != "" {
			r.store[k] = v
		}
	}
	return r
}

// Name returns the resolver's name
func (r *StaticResolver) Name() string {
	return r.name
}

// Resolve implements the Resolver interface
func (r *StaticResolver) Resolve(ref string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	secret, ok := r.store[ref]
	if !ok {
		return "", fmt.Errorf("%w: '%s' in %s", ErrNotFound, ref, r.name)
	}
	return secret, nil
}

// Set adds or replaces a secret
func (r *StaticResolver) Set(ref, secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[ref] = secret
}

// EnvResolver reads secrets from environment variables
type EnvResolver struct {
	vars   map[string]string
	lookup func(string) (string, bool)
}

// NewEnvResolver maps credential references to environment variable names
func NewEnvResolver(vars map[string]string) *EnvResolver {
	return &EnvResolver{vars: vars, lookup: os.LookupEnv}
}

// Name returns the resolver's name
func (r *EnvResolver) Name() string {
	return "env"
}

// Resolve implements the Resolver interface
func (r *EnvResolver) Resolve(ref string) (string, error) {
	name, ok := r.vars[ref]
	if !ok {
		return "", fmt.Errorf("%w: '%s' has no environment mapping", ErrNotFound, ref)
	}
	value, ok := r.lookup(name)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNotFound, name)
	}
	return value, nil
}
