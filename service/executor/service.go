// Package executor dispatches the tool calls of an approved request through
// the allowlist enforcer and the external tool client, and reports a
// structured outcome. A call outside the allowlist aborts the remaining
// plan; whatever executed before the abort is recorded, not discarded.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/toolbox"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/tool"
	"github.com/chrisk60331/slack-hitl-chat/tracing"
)

// Service executes approved requests.
type Service interface {
	Execute(ctx context.Context, item *approval.Item) (*approval.ExecutionResult, error)
}

// Option customises the executor.
type Option func(*service)

// WithMaxAttempts bounds retries of transient tool errors.
func WithMaxAttempts(attempts int) Option {
	return func(s *service) { s.maxAttempts = attempts }
}

// WithBackoff sets the initial retry backoff; each retry doubles it.
func WithBackoff(backoff time.Duration) Option {
	return func(s *service) { s.backoff = backoff }
}

type service struct {
	client      tool.Client
	maxAttempts int
	backoff     time.Duration
}

// New creates an executor over the given tool client (typically a provider
// registry adapted via AsClient).
func New(client tool.Client, options ...Option) Service {
	ret := &service{client: client, maxAttempts: 6, backoff: 100 * time.Millisecond}
	for _, option := range options {
		option(ret)
	}
	return ret
}

type toolOutcome struct {
	Tool    string          `json:"tool"`
	Content string          `json:"content,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Execute runs the item's tool plan under the allowlist. The plan is the
// intended tool order, narrowed to the authorized set at call time.
func (s *service) Execute(ctx context.Context, item *approval.Item) (*approval.ExecutionResult, error) {
	if item == nil || (item.Status != approval.StatusExecuting) {
		return nil, ErrNotApproved
	}
	if len(item.IntendedTools) == 0 {
		return nil, ErrNoTools
	}
	ctx, span := tracing.StartSpan(ctx, "executor.execute", "INTERNAL")
	defer tracing.EndSpan(span, nil)
	span.WithAttributes(map[string]string{"request_id": item.RequestID})

	enforcer := tool.NewEnforcer(item.AllowedTools, item.IntendedTools)
	restricted := tool.Restricted(s.client, enforcer)
	args := s.argsFor(item)

	var outcomes []toolOutcome
	for _, toolID := range item.IntendedTools {
		result, err := s.callWithRetry(ctx, restricted, toolID, args)
		if err != nil {
			outcomes = append(outcomes, toolOutcome{Tool: toolID, Error: err.Error()})
			unauthorized := errors.Is(err, tool.ErrUnauthorizedTool)
			return s.result(item, outcomes, "failed", unauthorized), err
		}
		outcomes = append(outcomes, toolOutcome{Tool: toolID, Content: result.Content, Payload: result.Payload})
	}
	return s.result(item, outcomes, "success", false), nil
}

func (s *service) callWithRetry(ctx context.Context, client tool.Client, toolID string, args map[string]interface{}) (*tool.Result, error) {
	backoff := s.backoff
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := client.CallTool(ctx, toolID, args)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("tool %s failed after %d attempts: %w", toolID, s.maxAttempts, lastErr)
}

// argsFor extracts tool arguments from the action metadata; free-form
// metadata is coerced into a string-keyed map via the toolbox converter.
func (s *service) argsFor(item *approval.Item) map[string]interface{} {
	raw, ok := item.Action.Metadata["args"]
	if !ok {
		return nil
	}
	args := map[string]interface{}{}
	if err := toolbox.DefaultConverter.AssignConverted(&args, raw); err != nil {
		return nil
	}
	return args
}

func (s *service) result(item *approval.Item, outcomes []toolOutcome, status string, unauthorized bool) *approval.ExecutionResult {
	payload, _ := json.Marshal(outcomes)
	var messages []string
	for _, outcome := range outcomes {
		switch {
		case outcome.Error != "":
			messages = append(messages, fmt.Sprintf("%s: %s", outcome.Tool, outcome.Error))
		case outcome.Content != "":
			messages = append(messages, outcome.Content)
		}
	}
	return &approval.ExecutionResult{
		Status:       status,
		Message:      strings.Join(messages, "\n"),
		Payload:      payload,
		Unauthorized: unauthorized,
		CompletedAt:  clock.Now(),
	}
}
