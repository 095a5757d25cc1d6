package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records calls so tests can assert what reached the provider.
type fakeClient struct {
	catalog []Tool
	calls   []string
	err     error
}

func (c *fakeClient) ListTools(_ context.Context) ([]Tool, error) {
	return c.catalog, nil
}

func (c *fakeClient) CallTool(_ context.Context, toolID string, _ map[string]interface{}) (*Result, error) {
	c.calls = append(c.calls, toolID)
	if c.err != nil {
		return nil, c.err
	}
	return &Result{Content: "ok:" + toolID}, nil
}

func TestAuthorize(t *testing.T) {
	enforcer := NewEnforcer([]string{"google/suspend_user"}, []string{"google/suspend_user", "google/list_users"})

	assert.NoError(t, enforcer.Authorize("google/suspend_user"))

	err := enforcer.Authorize("google/list_users")
	assert.ErrorIs(t, err, ErrUnauthorizedTool)

	err = enforcer.Authorize("google/delete_user")
	assert.ErrorIs(t, err, ErrUnauthorizedTool)
}

func TestEmptyAllowlistFallsBackToIntended(t *testing.T) {
	// Auto-allow path: no explicit allowlist, intended tools only - never an
	// unrestricted catalog.
	enforcer := NewEnforcer(nil, []string{"google/list_users"})
	assert.NoError(t, enforcer.Authorize("google/list_users"))
	assert.ErrorIs(t, enforcer.Authorize("google/suspend_user"), ErrUnauthorizedTool)
	assert.Equal(t, []string{"google/list_users"}, enforcer.Allowed())
}

func TestFilter(t *testing.T) {
	catalog := []Tool{
		{ID: "google/suspend_user", Alias: "google", Name: "suspend_user"},
		{ID: "google/list_users", Alias: "google", Name: "list_users"},
		{ID: "jira/create_issue", Alias: "jira", Name: "create_issue"},
	}
	enforcer := NewEnforcer([]string{"google/list_users"}, nil)
	visible := enforcer.Filter(catalog)
	require.Len(t, visible, 1)
	assert.Equal(t, "google/list_users", visible[0].ID)
}

func TestRestrictedNeverReachesClient(t *testing.T) {
	client := &fakeClient{}
	restricted := Restricted(client, NewEnforcer([]string{"google/list_users"}, nil))

	_, err := restricted.CallTool(context.Background(), "google/suspend_user", nil)
	assert.ErrorIs(t, err, ErrUnauthorizedTool)
	assert.Empty(t, client.calls)

	result, err := restricted.CallTool(context.Background(), "google/list_users", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok:google/list_users", result.Content)
	assert.Equal(t, []string{"google/list_users"}, client.calls)
}

func TestUnauthorizedDistinctFromProviderFailure(t *testing.T) {
	client := &fakeClient{err: assert.AnError}
	restricted := Restricted(client, NewEnforcer([]string{"a/b"}, nil))

	_, err := restricted.CallTool(context.Background(), "a/b", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorizedTool))
	assert.ErrorIs(t, err, assert.AnError)
}
