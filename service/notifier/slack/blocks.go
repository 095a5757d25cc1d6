package slack

import (
	"encoding/json"
	"fmt"

	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
)

// Block Kit construction, kept in one place so the wire shape is easy to
// audit against Slack's schema.

func section(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{"type": "mrkdwn", "text": text},
	}
}

func buildBlocks(msg *notifier.Message) []map[string]interface{} {
	var blocks []map[string]interface{}
	if msg.Title != "" {
		blocks = append(blocks, map[string]interface{}{
			"type": "header",
			"text": map[string]interface{}{"type": "plain_text", "text": msg.Title, "emoji": true},
		})
	}
	if msg.RequestID != "" {
		blocks = append(blocks, map[string]interface{}{
			"type": "context",
			"elements": []map[string]interface{}{
				{"type": "mrkdwn", "text": fmt.Sprintf("Request ID: %s", msg.RequestID)},
			},
		})
	}
	for _, chunk := range notifier.ChunkText(msg.Text, 0) {
		if chunk == "" {
			continue
		}
		blocks = append(blocks, section(chunk))
	}
	for _, field := range msg.Fields {
		blocks = append(blocks, section(fmt.Sprintf("*%s:*\n%s", field.Label, field.Value)))
	}
	if msg.Decision {
		blocks = append(blocks, decisionActions(msg.RequestID))
	}
	return blocks
}

func decisionActions(requestID string) map[string]interface{} {
	approve, _ := json.Marshal(map[string]string{"request_id": requestID, "decision": "approve"})
	reject, _ := json.Marshal(map[string]string{"request_id": requestID, "decision": "reject"})
	return map[string]interface{}{
		"type": "actions",
		"elements": []map[string]interface{}{
			{
				"type":      "button",
				"action_id": "approve",
				"style":     "primary",
				"text":      map[string]interface{}{"type": "plain_text", "text": "Approve", "emoji": true},
				"value":     string(approve),
			},
			{
				"type":      "button",
				"action_id": "reject",
				"style":     "danger",
				"text":      map[string]interface{}{"type": "plain_text", "text": "Reject", "emoji": true},
				"value":     string(reject),
			},
		},
	}
}
