package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
)

func pendingItem(requestID string) *approval.Item {
	return &approval.Item{
		RequestID: requestID,
		Status:    approval.StatusPendingApproval,
		Requester: "agent",
		Action: action.Proposed{
			Category:    action.CategoryPrivilegedWrite,
			Description: "suspend user",
		},
		IntendedTools: []string{"google/suspend_user", "google/list_users"},
	}
}

func TestCreateAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	item := pendingItem("req-1")
	require.NoError(t, store.Create(ctx, item))

	loaded, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPendingApproval, loaded.Status)
	assert.Equal(t, 1, loaded.Revision)
	assert.False(t, loaded.CreatedAt.IsZero())

	err = store.Create(ctx, pendingItem("req-1"))
	assert.ErrorIs(t, err, dao.ErrAlreadyExists)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestCreateRejectsToolsSupersets(t *testing.T) {
	store := New()
	item := pendingItem("req-1")
	item.AllowedTools = []string{"google/delete_user"}
	err := store.Create(context.Background(), item)
	assert.ErrorIs(t, err, approval.ErrToolsNotSubset)
}

func TestTransition(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingItem("req-1")))

	item, err := store.Transition(ctx, "req-1", approval.StatusPendingApproval, approval.StatusApproved,
		func(item *approval.Item) error {
			item.Approver = "carol"
			item.AllowedTools = []string{"google/suspend_user"}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, item.Status)
	assert.Equal(t, "carol", item.Approver)
	assert.Equal(t, 2, item.Revision)

	// stale expected status loses
	_, err = store.Transition(ctx, "req-1", approval.StatusPendingApproval, approval.StatusRejected, nil)
	assert.ErrorIs(t, err, dao.ErrConflict)

	// the losing write did not disturb the record
	loaded, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, loaded.Status)
}

func TestTransitionInvalidEdge(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingItem("req-1")))

	_, err := store.Transition(ctx, "req-1", approval.StatusPendingApproval, approval.StatusCompleted, nil)
	assert.ErrorIs(t, err, approval.ErrInvalidTransition)
}

func TestTransitionEnforcesToolSubset(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingItem("req-1")))

	_, err := store.Transition(ctx, "req-1", approval.StatusPendingApproval, approval.StatusApproved,
		func(item *approval.Item) error {
			item.AllowedTools = []string{"google/delete_user"}
			return nil
		})
	assert.ErrorIs(t, err, approval.ErrToolsNotSubset)
}

func TestTransitionSingleWinner(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingItem("req-1")))

	const writers = 16
	var wg sync.WaitGroup
	wins := make(chan approval.Status, writers)
	for i := 0; i < writers; i++ {
		target := approval.StatusApproved
		if i%2 == 1 {
			target = approval.StatusRejected
		}
		wg.Add(1)
		go func(to approval.Status) {
			defer wg.Done()
			if _, err := store.Transition(ctx, "req-1", approval.StatusPendingApproval, to, nil); err == nil {
				wins <- to
			}
		}(target)
	}
	wg.Wait()
	close(wins)

	var winners []approval.Status
	for status := range wins {
		winners = append(winners, status)
	}
	require.Len(t, winners, 1)
	loaded, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, winners[0], loaded.Status)
}

func TestList(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingItem("req-1")))
	require.NoError(t, store.Create(ctx, pendingItem("req-2")))
	denied := pendingItem("req-3")
	denied.Status = approval.StatusDenied
	denied.Requester = "other"
	require.NoError(t, store.Create(ctx, denied))

	pending, err := store.List(ctx, dao.NewParameter(approval.ParamStatus, string(approval.StatusPendingApproval)))
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byRequester, err := store.List(ctx, dao.NewParameter(approval.ParamRequester, "other"))
	require.NoError(t, err)
	assert.Len(t, byRequester, 1)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
