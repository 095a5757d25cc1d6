// Package tool defines the external tool-execution client contract, the
// provider registry keyed by alias, and the allowlist enforcer that
// restricts which tools an approved request may call.
package tool
