package tool

import (
	"context"
	"fmt"
	"sync"
)

// Registry maps provider aliases to clients and carries per-alias disabled
// tool names. Providers are registered at configuration time; lookups by
// alias replace any dynamic dispatch.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client
	disabled map[string]map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]Client),
		disabled: make(map[string]map[string]bool),
	}
}

// Register adds a provider client under an alias.
func (r *Registry) Register(alias string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[alias] = client
}

// Disable marks tool names (without alias prefix) as unavailable for an
// alias regardless of any allowlist.
func (r *Registry) Disable(alias string, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.disabled[alias]
	if set == nil {
		set = make(map[string]bool)
		r.disabled[alias] = set
	}
	for _, name := range names {
		set[name] = true
	}
}

// Lookup returns the client for an alias.
func (r *Registry) Lookup(alias string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}
	return client, nil
}

// ResolveTools lists the tools a provider exposes, minus the disabled ones.
func (r *Registry) ResolveTools(ctx context.Context, alias string) ([]Tool, error) {
	client, err := r.Lookup(alias)
	if err != nil {
		return nil, err
	}
	catalog, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	disabled := r.disabled[alias]
	r.mu.RUnlock()
	if len(disabled) == 0 {
		return catalog, nil
	}
	out := make([]Tool, 0, len(catalog))
	for _, t := range catalog {
		if disabled[t.Name] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Call routes a fully qualified tool id to its provider, honoring the
// per-alias disabled set.
func (r *Registry) Call(ctx context.Context, toolID string, args map[string]interface{}) (*Result, error) {
	alias, name := Split(toolID)
	client, err := r.Lookup(alias)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	isDisabled := r.disabled[alias][name]
	r.mu.RUnlock()
	if isDisabled {
		return nil, Unauthorized(toolID)
	}
	return client.CallTool(ctx, toolID, args)
}

var _ Client = (*registryClient)(nil)

// AsClient adapts the whole registry to the Client contract so the executor
// can treat a multi-provider setup as one catalog.
func (r *Registry) AsClient() Client { return &registryClient{registry: r} }

type registryClient struct {
	registry *Registry
}

func (c *registryClient) ListTools(ctx context.Context) ([]Tool, error) {
	c.registry.mu.RLock()
	aliases := make([]string, 0, len(c.registry.clients))
	for alias := range c.registry.clients {
		aliases = append(aliases, alias)
	}
	c.registry.mu.RUnlock()
	var out []Tool
	for _, alias := range aliases {
		tools, err := c.registry.ResolveTools(ctx, alias)
		if err != nil {
			return nil, err
		}
		out = append(out, tools...)
	}
	return out, nil
}

func (c *registryClient) CallTool(ctx context.Context, toolID string, args map[string]interface{}) (*Result, error) {
	return c.registry.Call(ctx, toolID, args)
}
