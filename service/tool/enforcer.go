package tool

import (
	"context"
	"sort"
)

// Enforcer restricts tool visibility and invocation to an explicit set of
// fully qualified tool ids. When the approved allowlist is empty (the
// auto-allow policy path) it falls back to the tools the request declared as
// intended - never an unrestricted catalog. Access is never widened beyond
// what was proposed and, where required, approved.
type Enforcer struct {
	allowed map[string]bool
}

// NewEnforcer builds an enforcer from the approved allowlist, falling back
// to intendedTools when the allowlist is empty.
func NewEnforcer(allowedTools, intendedTools []string) *Enforcer {
	source := allowedTools
	if len(source) == 0 {
		source = intendedTools
	}
	allowed := make(map[string]bool, len(source))
	for _, id := range source {
		if id != "" {
			allowed[id] = true
		}
	}
	return &Enforcer{allowed: allowed}
}

// Authorize hard-fails a call whose tool id is outside the allowed set.
func (e *Enforcer) Authorize(toolID string) error {
	if !e.allowed[toolID] {
		return Unauthorized(toolID)
	}
	return nil
}

// Filter returns the subset of catalog visible under the allowed set.
func (e *Enforcer) Filter(catalog []Tool) []Tool {
	out := make([]Tool, 0, len(catalog))
	for _, t := range catalog {
		if e.allowed[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// Allowed returns the sorted allowed tool ids, for audit logging.
func (e *Enforcer) Allowed() []string {
	out := make([]string, 0, len(e.allowed))
	for id := range e.allowed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Restricted wraps a client so every call goes through the enforcer. The
// underlying client is never reached for an unauthorized id.
func Restricted(client Client, enforcer *Enforcer) Client {
	return &restricted{client: client, enforcer: enforcer}
}

type restricted struct {
	client   Client
	enforcer *Enforcer
}

func (r *restricted) ListTools(ctx context.Context) ([]Tool, error) {
	catalog, err := r.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	return r.enforcer.Filter(catalog), nil
}

func (r *restricted) CallTool(ctx context.Context, toolID string, args map[string]interface{}) (*Result, error) {
	if err := r.enforcer.Authorize(toolID); err != nil {
		return nil, err
	}
	return r.client.CallTool(ctx, toolID, args)
}
