package identity

import (
	"context"
	"net/http"
	"sync"
)

// Registry holds every configured provider keyed by id and resolves the
// single active provider. The active id is threaded in at construction (or
// via Reload); it is never read from ambient global state.
type Registry struct {
	mu       sync.RWMutex
	active   string
	entries  map[string]registryEntry
}

type registryEntry struct {
	provider Provider
	config   Config
}

// NewRegistry builds a registry from provider configurations. Exactly the
// named active provider handles authentication; the others stay registered
// but reject authorization attempts.
func NewRegistry(ctx context.Context, activeID string, configs []Config) (*Registry, error) {
	r := &Registry{entries: make(map[string]registryEntry)}
	if err := r.load(ctx, activeID, configs); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context, activeID string, configs []Config) error {
	entries := make(map[string]registryEntry, len(configs))
	for _, cfg := range configs {
		p, err := NewProvider(ctx, cfg)
		if err != nil {
			return err
		}
		entries[cfg.ID] = registryEntry{provider: p, config: cfg}
	}
	if _, ok := entries[activeID]; !ok {
		return configErrorf("active provider %q is not configured", activeID)
	}

	r.mu.Lock()
	r.entries = entries
	r.active = activeID
	r.mu.Unlock()
	return nil
}

// Reload swaps in a new provider set and active id. In-flight and existing
// sessions are unaffected; only new authorization attempts see the change.
func (r *Registry) Reload(ctx context.Context, activeID string, configs []Config) error {
	return r.load(ctx, activeID, configs)
}

// ActiveID returns the configured active provider id.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Active returns the active provider with its configuration.
func (r *Registry) Active() (Provider, Config) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e := r.entries[r.active]
	return e.provider, e.config
}

// Get returns the provider for id, enforcing that only the active provider
// may authorize. Non-active providers return ErrProviderNotActive so a stale
// callback URL cannot log anyone in.
func (r *Registry) Get(id string) (Provider, Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, Config{}, ErrProviderNotFound
	}
	if id != r.active {
		return nil, Config{}, ErrProviderNotActive
	}
	return e.provider, e.config, nil
}

// LoginForm delegates to the active provider's login prompt.
func (r *Registry) LoginForm(req *http.Request) (*Prompt, error) {
	p, _ := r.Active()
	return p.LoginPrompt(req)
}
