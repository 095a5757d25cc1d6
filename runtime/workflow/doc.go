// Package workflow drives an approval request from proposal to terminal
// state. It orchestrates the policy engine, the approval store, the
// notification dispatcher and the executor, and owns every lifecycle write:
// the executor only ever sees an item already moved to executing, and the
// dispatcher never mutates records at all.
//
// All coordination runs through the store's conditional transition, so the
// workflow is safe to invoke from many short-lived, stateless entry points
// at once: the first writer to satisfy the expected-status condition wins a
// step, everyone else observes a conflict and backs off.
package workflow
