package workflow

import (
	"encoding/json"
	"strings"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
)

// Trigger is the inbound payload that starts (or replays) a workflow run.
type Trigger struct {
	// EventID is the external delivery id (chat event, queue message). Used
	// for replay suppression; optional for direct callers.
	EventID string `json:"eventId,omitempty"`
	// RequestID overrides the derived request id. Leave empty to derive one
	// deterministically from the action text.
	RequestID string `json:"requestId,omitempty"`
	Requester string `json:"requester,omitempty"`
	// ActionText is the natural-language action when no structured action is
	// supplied; category and resource are inferred from it.
	ActionText string           `json:"actionText,omitempty"`
	Action     *action.Proposed `json:"proposedAction,omitempty"`
	Channel    string           `json:"channel,omitempty"`
	ThreadTS   string           `json:"threadTs,omitempty"`
}

// Outcome statuses reported to callers. Pending means the request awaits a
// human decision; all others are final.
const (
	OutcomeCompleted       = "completed"
	OutcomeRejected        = "rejected"
	OutcomeDenied          = "denied"
	OutcomeExecutionFailed = "execution_failed"
	OutcomeApprovalFailed  = "approval_failed"
	OutcomePending         = "pending"
)

// Outcome is the workflow result contract for callers.
type Outcome struct {
	Status    string          `json:"status"`
	RequestID string          `json:"requestId"`
	Message   string          `json:"message,omitempty"`
	Result    json.RawMessage `json:"executionResult,omitempty"`
}

// outcomeFor maps an approval item onto the caller-facing outcome.
func outcomeFor(item *approval.Item) *Outcome {
	out := &Outcome{RequestID: item.RequestID}
	switch item.Status {
	case approval.StatusCompleted:
		out.Status = OutcomeCompleted
	case approval.StatusRejected:
		out.Status = OutcomeRejected
	case approval.StatusDenied:
		out.Status = OutcomeDenied
	case approval.StatusExecutionFailed:
		out.Status = OutcomeExecutionFailed
	default:
		out.Status = OutcomePending
	}
	if item.Result != nil {
		out.Message = item.Result.Message
		out.Result = item.Result.Payload
	}
	if out.Message == "" {
		out.Message = item.Reason
	}
	return out
}

// actionText returns the canonical text the request id is derived from.
func (t *Trigger) actionText() string {
	if text := strings.TrimSpace(t.ActionText); text != "" {
		return text
	}
	if t.Action != nil {
		return strings.TrimSpace(t.Action.Description)
	}
	return ""
}
