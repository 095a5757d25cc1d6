// Package approval defines the durable approval record, its status state
// machine and the store contract used to drive human-in-the-loop gating of
// agent tool execution.
package approval
