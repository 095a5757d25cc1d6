package tool

import (
	"context"
	"encoding/json"
	"strings"
)

// Tool describes one callable tool exposed by a provider.
type Tool struct {
	ID          string `json:"id"` // fully qualified, e.g. "google/suspend_user"
	Alias       string `json:"alias"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Qualified builds a fully qualified tool id from a provider alias and a
// tool name.
func Qualified(alias, name string) string {
	return alias + "/" + name
}

// Split decomposes a fully qualified tool id into alias and name. Ids
// without an alias return an empty alias.
func Split(id string) (alias, name string) {
	if idx := strings.Index(id, "/"); idx > 0 {
		return id[:idx], id[idx+1:]
	}
	return "", id
}

// Result is the structured outcome of a tool call.
type Result struct {
	Content string          `json:"content,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is the external tool-execution contract. Implementations talk to a
// concrete provider (MCP server, admin API, ...); this module never does.
type Client interface {
	// ListTools enumerates the tools the provider currently exposes.
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes a tool by fully qualified id.
	CallTool(ctx context.Context, toolID string, args map[string]interface{}) (*Result, error)
}
