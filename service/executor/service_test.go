package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/tool"
)

// scriptedClient fails a tool id a configured number of times before
// succeeding, and records every call that reached it.
type scriptedClient struct {
	failures map[string]int
	failWith func() error
	calls    []string
}

func (c *scriptedClient) ListTools(_ context.Context) ([]tool.Tool, error) { return nil, nil }

func (c *scriptedClient) CallTool(_ context.Context, toolID string, _ map[string]interface{}) (*tool.Result, error) {
	c.calls = append(c.calls, toolID)
	if c.failures[toolID] > 0 {
		c.failures[toolID]--
		return nil, c.failWith()
	}
	return &tool.Result{Content: "done:" + toolID}, nil
}

func executingItem(tools, allowed []string) *approval.Item {
	return &approval.Item{
		RequestID: "req-1",
		Status:    approval.StatusExecuting,
		Action: action.Proposed{
			Category:    action.CategoryPrivilegedWrite,
			Description: "suspend user",
		},
		IntendedTools: tools,
		AllowedTools:  allowed,
	}
}

func TestExecuteSuccess(t *testing.T) {
	client := &scriptedClient{}
	service := New(client)

	item := executingItem([]string{"google/list_users", "google/suspend_user"}, []string{"google/list_users", "google/suspend_user"})
	result, err := service.Execute(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.False(t, result.Unauthorized)
	assert.Equal(t, []string{"google/list_users", "google/suspend_user"}, client.calls)

	var outcomes []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Payload, &outcomes))
	assert.Len(t, outcomes, 2)
}

func TestExecuteUnauthorizedAbortsAndRecordsPartial(t *testing.T) {
	client := &scriptedClient{}
	service := New(client)

	// second tool is intended but not allowed
	item := executingItem([]string{"google/list_users", "google/suspend_user", "google/delete_user"}, []string{"google/list_users"})
	result, err := service.Execute(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, tool.ErrUnauthorizedTool)

	require.NotNil(t, result)
	assert.Equal(t, "failed", result.Status)
	assert.True(t, result.Unauthorized)
	// only the authorized call reached the client; the plan aborted there
	assert.Equal(t, []string{"google/list_users"}, client.calls)

	// partial execution is recorded, not discarded
	var outcomes []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Payload, &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "done:google/list_users", outcomes[0]["content"])
	assert.Contains(t, outcomes[1]["error"], "not permitted")
}

func TestExecuteRetriesTransient(t *testing.T) {
	client := &scriptedClient{
		failures: map[string]int{"google/list_users": 2},
		failWith: func() error { return &Transient{Err: assert.AnError} },
	}
	service := New(client, WithMaxAttempts(4), WithBackoff(time.Millisecond))

	item := executingItem([]string{"google/list_users"}, nil)
	result, err := service.Execute(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Len(t, client.calls, 3)
}

func TestExecuteTransientExhaustsAttempts(t *testing.T) {
	client := &scriptedClient{
		failures: map[string]int{"google/list_users": 10},
		failWith: func() error { return &Transient{Err: assert.AnError} },
	}
	service := New(client, WithMaxAttempts(2), WithBackoff(time.Millisecond))

	item := executingItem([]string{"google/list_users"}, nil)
	result, err := service.Execute(context.Background(), item)
	require.Error(t, err)
	assert.Equal(t, "failed", result.Status)
	assert.False(t, result.Unauthorized)
	assert.Len(t, client.calls, 2)
}

func TestExecuteNonTransientNoRetry(t *testing.T) {
	client := &scriptedClient{
		failures: map[string]int{"google/list_users": 10},
		failWith: func() error { return assert.AnError },
	}
	service := New(client, WithMaxAttempts(5), WithBackoff(time.Millisecond))

	item := executingItem([]string{"google/list_users"}, nil)
	_, err := service.Execute(context.Background(), item)
	require.Error(t, err)
	assert.Len(t, client.calls, 1)
}

func TestExecuteGuards(t *testing.T) {
	service := New(&scriptedClient{})

	item := executingItem([]string{"a/b"}, nil)
	item.Status = approval.StatusPendingApproval
	_, err := service.Execute(context.Background(), item)
	assert.ErrorIs(t, err, ErrNotApproved)

	empty := executingItem(nil, nil)
	_, err = service.Execute(context.Background(), empty)
	assert.ErrorIs(t, err, ErrNoTools)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&Transient{Err: assert.AnError}))
	assert.False(t, IsTransient(assert.AnError))
	assert.False(t, IsTransient(nil))
}
