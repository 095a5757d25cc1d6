package approval

import (
	"encoding/json"
	"time"

	"github.com/chrisk60331/slack-hitl-chat/internal/idgen"
	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

// Status is the lifecycle state of an approval request.
type Status string

const (
	StatusProposed        Status = "proposed"
	StatusAllowed         Status = "allowed"
	StatusDenied          Status = "denied"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusExecuting       Status = "executing"
	StatusCompleted       Status = "completed"
	StatusExecutionFailed Status = "execution_failed"
)

// transitions is the status graph. Statuses absent from the map are
// terminal. Transitions are monotonic: there is no path back to an earlier
// status.
var transitions = map[Status][]Status{
	StatusProposed:        {StatusAllowed, StatusDenied, StatusPendingApproval},
	StatusAllowed:         {StatusExecuting},
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusDenied},
	StatusApproved:        {StatusExecuting},
	StatusExecuting:       {StatusCompleted, StatusExecutionFailed},
}

// CanTransition reports whether moving from s to next follows the graph.
func (s Status) CanTransition(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// RejectedByHuman is the synthesized execution result message recorded when
// an approver rejects a request.
const RejectedByHuman = "Request Rejected by Human."

// ExecutionResult is the structured outcome written once by the executor.
type ExecutionResult struct {
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Unauthorized bool            `json:"unauthorized,omitempty"`
	CompletedAt  time.Time       `json:"completedAt,omitempty"`
}

// Item is the aggregate root of one approval request's lifecycle.
//
// Invariants:
//   - AllowedTools is always a subset of IntendedTools.
//   - Status only moves forward along the transition graph.
//   - At most one writer transitions a given RequestID at a time, enforced
//     by the store's conditional update.
type Item struct {
	RequestID     string           `json:"requestId"`
	Status        Status           `json:"status"`
	Requester     string           `json:"requester,omitempty"`
	Action        action.Proposed  `json:"action"`
	IntendedTools []string         `json:"intendedTools,omitempty"`
	AllowedTools  []string         `json:"allowedTools,omitempty"`
	Approver      string           `json:"approver,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Result        *ExecutionResult `json:"result,omitempty"`
	Channel       string           `json:"channel,omitempty"`
	ThreadTS      string           `json:"threadTs,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	// Revision increments on every write; durable stores use it as the
	// optimistic concurrency token.
	Revision int `json:"revision"`
}

// Decision is a human approval decision delivered by the dispatcher's
// inbound channel.
type Decision struct {
	RequestID string `json:"requestId"`
	Approve   bool   `json:"approve"`
	Approver  string `json:"approver,omitempty"`
	Reason    string `json:"reason,omitempty"`
	// AllowedTools restricts the authorized tool set. Empty means all of the
	// request's intended tools.
	AllowedTools []string `json:"allowedTools,omitempty"`
}

// RequestID derives a deterministic request identifier from a proposed
// action text so duplicate submissions collapse onto one record.
func RequestID(actionText string) string {
	return idgen.Deterministic(actionText)
}

// Clone returns a deep enough copy for safe mutation outside the store.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	clone.IntendedTools = append([]string(nil), i.IntendedTools...)
	clone.AllowedTools = append([]string(nil), i.AllowedTools...)
	if i.Result != nil {
		result := *i.Result
		clone.Result = &result
	}
	if i.ExpiresAt != nil {
		expires := *i.ExpiresAt
		clone.ExpiresAt = &expires
	}
	return &clone
}

// ToolsSubset reports whether every entry of sub occurs in super.
func ToolsSubset(sub, super []string) bool {
	if len(sub) == 0 {
		return true
	}
	allowed := make(map[string]bool, len(super))
	for _, id := range super {
		allowed[id] = true
	}
	for _, id := range sub {
		if !allowed[id] {
			return false
		}
	}
	return true
}
