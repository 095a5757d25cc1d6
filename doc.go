// Package hitl provides an approval-gated tool execution workflow for
// automated agents: a policy engine decides whether a proposed action runs
// immediately, is denied, or waits for explicit human approval, and an
// executor then dispatches tool calls restricted to exactly the approved
// allowlist.
//
// End-users typically interact through the high-level Service façade
// exposed by the root package:
//
//	srv, _ := hitl.New()
//	outcome, _ := srv.Submit(ctx, &workflow.Trigger{
//	    ActionText:    "suspend user bob@example.com",
//	    Requester:     "agent",
//	})
//	if outcome.Status == workflow.OutcomePending {
//	    outcome, _ = srv.WaitForOutcome(ctx, outcome.RequestID)
//	}
//
// For more details see the README and individual sub-packages.
package hitl
