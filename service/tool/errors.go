package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorizedTool marks a call outside the resolved allowlist. It is
	// deliberately distinct from provider failures so callers and audit logs
	// can tell "not permitted" apart from "tool errored".
	ErrUnauthorizedTool = errors.New("tool: not permitted by allowlist")

	// ErrUnknownAlias is returned when no provider is registered for an
	// alias.
	ErrUnknownAlias = errors.New("tool: unknown provider alias")
)

// Unauthorized wraps ErrUnauthorizedTool with the offending tool id.
func Unauthorized(toolID string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorizedTool, toolID)
}
