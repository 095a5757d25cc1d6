package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusProposed, StatusAllowed, true},
		{StatusProposed, StatusDenied, true},
		{StatusProposed, StatusPendingApproval, true},
		{StatusProposed, StatusApproved, false},
		{StatusPendingApproval, StatusApproved, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPendingApproval, StatusDenied, true},
		{StatusPendingApproval, StatusCompleted, false},
		{StatusApproved, StatusExecuting, true},
		{StatusAllowed, StatusExecuting, true},
		{StatusExecuting, StatusCompleted, true},
		{StatusExecuting, StatusExecutionFailed, true},
		// terminal states never move
		{StatusCompleted, StatusExecuting, false},
		{StatusRejected, StatusApproved, false},
		{StatusDenied, StatusPendingApproval, false},
		{StatusExecutionFailed, StatusExecuting, false},
		// no back-transitions
		{StatusApproved, StatusPendingApproval, false},
		{StatusExecuting, StatusApproved, false},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.allowed, testCase.from.CanTransition(testCase.to),
			"%s -> %s", testCase.from, testCase.to)
	}
}

func TestTerminal(t *testing.T) {
	for _, status := range []Status{StatusDenied, StatusRejected, StatusCompleted, StatusExecutionFailed} {
		assert.True(t, status.Terminal(), string(status))
	}
	for _, status := range []Status{StatusProposed, StatusAllowed, StatusPendingApproval, StatusApproved, StatusExecuting} {
		assert.False(t, status.Terminal(), string(status))
	}
}

func TestToolsSubset(t *testing.T) {
	assert.True(t, ToolsSubset(nil, nil))
	assert.True(t, ToolsSubset(nil, []string{"a/b"}))
	assert.True(t, ToolsSubset([]string{"a/b"}, []string{"a/b", "a/c"}))
	assert.False(t, ToolsSubset([]string{"a/d"}, []string{"a/b", "a/c"}))
	assert.False(t, ToolsSubset([]string{"a/b"}, nil))
}

func TestRequestIDDeterministic(t *testing.T) {
	first := RequestID("suspend user bob@example.com")
	second := RequestID("suspend user bob@example.com")
	other := RequestID("suspend user alice@example.com")
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestNewPending(t *testing.T) {
	proposed := &action.Proposed{
		Category:      action.CategoryPrivilegedWrite,
		Description:   "suspend user",
		Requester:     "agent",
		IntendedTools: []string{"google/suspend_user"},
	}
	item := NewPending("req-1", proposed, time.Hour)
	assert.Equal(t, StatusPendingApproval, item.Status)
	assert.Equal(t, proposed.IntendedTools, item.IntendedTools)
	assert.Empty(t, item.AllowedTools)
	assert.NotNil(t, item.ExpiresAt)
	assert.True(t, item.Expired(item.CreatedAt.Add(2*time.Hour)))
	assert.False(t, item.Expired(item.CreatedAt.Add(time.Minute)))

	noExpiry := NewPending("req-2", proposed, 0)
	assert.Nil(t, noExpiry.ExpiresAt)
}

func TestClone(t *testing.T) {
	now := time.Now()
	item := &Item{
		RequestID:     "req-1",
		Status:        StatusApproved,
		IntendedTools: []string{"a/b"},
		AllowedTools:  []string{"a/b"},
		Result:        &ExecutionResult{Status: "success"},
		ExpiresAt:     &now,
	}
	clone := item.Clone()
	clone.IntendedTools[0] = "changed"
	clone.Result.Status = "failed"
	assert.Equal(t, "a/b", item.IntendedTools[0])
	assert.Equal(t, "success", item.Result.Status)
}
