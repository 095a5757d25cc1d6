package hitl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
policy_rules_path: /etc/hitl/rules.yaml
channel: C-approvals
approval:
  pending_expiry: 15m
  timeout_resolves_to: denied
executor:
  max_attempts: 3
  backoff: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/hitl/rules.yaml", config.PolicyRulesPath)
	assert.Equal(t, "C-approvals", config.Channel)
	assert.Equal(t, 15*time.Minute, config.Approval.PendingExpiry)
	assert.Equal(t, "denied", config.Approval.TimeoutResolvesTo)
	assert.Equal(t, 3, config.Executor.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, config.Executor.Backoff)
	// untouched settings keep their defaults
	assert.Equal(t, 30*time.Second, config.Approval.PollInterval)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel: from-file\n"), 0o600))

	t.Setenv("HITL_CHANNEL", "from-env")
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Channel)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())

	config.Approval.TimeoutResolvesTo = "expired"
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Executor.MaxAttempts = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Approval.PendingExpiry = -time.Minute
	assert.Error(t, config.Validate())
}
