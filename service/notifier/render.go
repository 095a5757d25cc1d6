package notifier

import (
	"fmt"
	"strings"

	"github.com/chrisk60331/slack-hitl-chat/service/approval"
)

// Rendering limits chosen to stay under common chat-platform message caps.
const (
	maxPromptChars  = 300
	maxResultChunk  = 2900
	shortRequestLen = 12
)

// ShortID truncates a request id for display.
func ShortID(requestID string) string {
	if len(requestID) <= shortRequestLen {
		return requestID
	}
	return requestID[:shortRequestLen]
}

// ApprovalPrompt renders the message soliciting a human decision for a
// pending request.
func ApprovalPrompt(item *approval.Item) *Message {
	proposed := item.Action.Description
	if len(proposed) > maxPromptChars {
		proposed = proposed[:maxPromptChars] + "..."
	}
	fields := []Field{
		{Label: "Request ID", Value: item.RequestID},
		{Label: "Requester", Value: item.Requester},
		{Label: "Proposed Action", Value: proposed},
	}
	if len(item.IntendedTools) > 0 {
		fields = append(fields, Field{Label: "Proposed Tools", Value: strings.Join(item.IntendedTools, ", ")})
	}
	return &Message{
		Title:     "Pending Approval",
		Text:      fmt.Sprintf("Request %s requires approval", ShortID(item.RequestID)),
		RequestID: item.RequestID,
		Fields:    fields,
		Decision:  true,
	}
}

// Completion renders the final outcome of a request for the originating
// thread.
func Completion(item *approval.Item) *Message {
	var text string
	switch item.Status {
	case approval.StatusCompleted:
		text = "Execution completed"
	case approval.StatusExecutionFailed:
		text = "Execution failed"
	case approval.StatusRejected:
		text = "Request rejected"
	case approval.StatusDenied:
		text = "Request denied by policy"
	default:
		text = fmt.Sprintf("Request %s", item.Status)
	}
	msg := &Message{
		Title:     "Execution Result",
		Text:      text,
		RequestID: item.RequestID,
	}
	if item.Reason != "" {
		msg.Fields = append(msg.Fields, Field{Label: "Reason", Value: item.Reason})
	}
	if item.Result != nil && item.Result.Message != "" {
		msg.Fields = append(msg.Fields, Field{Label: "Result", Value: item.Result.Message})
	}
	return msg
}

// ChunkText splits long output into chat-sized chunks, breaking on newlines
// where possible so formatting survives pagination.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = maxResultChunk
	}
	if len(text) <= maxChars {
		return []string{text}
	}
	var chunks []string
	remaining := text
	for len(remaining) > maxChars {
		cut := strings.LastIndex(remaining[:maxChars], "\n")
		if cut <= 0 {
			cut = maxChars
		}
		chunks = append(chunks, remaining[:cut])
		remaining = strings.TrimPrefix(remaining[cut:], "\n")
	}
	if len(remaining) > 0 {
		chunks = append(chunks, remaining)
	}
	return chunks
}
