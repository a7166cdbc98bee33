// Package credentials provides methods for resolving and applying the platform keys.
// This file defines the resolver interface and the Provider that chains resolvers.
package credentials

import (
	"errors"
	"fmt"
	"sync"
)

// Credential references understood by the runner
const (
	RefAnonKey    = "anon_key"
	RefServiceKey = "service_key"
)

// ErrNotFound is returned when no resolver knows a reference
var ErrNotFound = errors.New("credential not found")

// Resolver defines the interface for resolving a secret by reference
type Resolver interface {
	// Resolve returns the secret value for ref, or an error wrapping ErrNotFound
	Resolve(ref string) (string, error)

	// Name returns the name of this resolver for registration and logging
	Name() string
}

// Provider manages credential resolvers
type Provider struct {
	resolvers []Resolver
	mu        sync.RWMutex
}

// NewProvider creates a new credential provider with the given resolvers, tried in order
func NewProvider(resolvers ...Resolver) *Provider {
	p := &Provider{}
	for _, r := range resolvers {
		if r != nil {
			p.resolvers = append(p.resolvers, r)
		}
	}
	return p
}

// RegisterResolver adds a credential resolver to the provider
func (p *Provider) RegisterResolver(resolver Resolver) error {
	if resolver == nil {
		return fmt.Errorf("cannot register nil resolver")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.resolvers {
		if r.Name() == resolver.Name() {
			return fmt.Errorf("credential resolver with name '%s' already registered", resolver.Name())
		}
	}

	p.resolvers = append(p.resolvers, resolver)
	return nil
}

// Resolve tries each resolver in order and returns the first non-empty secret
func (p *Provider) Resolve(ref string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, resolver := range p.resolvers {
		secret, err := resolver.Resolve(ref)
		if err == nil && secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrNotFound, ref)
}

// Secrets returns every secret the provider can resolve, for redaction
func (p *Provider) Secrets() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, ref := range []string{RefAnonKey, RefServiceKey} {
		if s, err := p.Resolve(ref); err == nil {
			out = append(out, s)
		}
	}
	return out
}
