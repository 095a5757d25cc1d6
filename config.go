package hitl

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/chrisk60331/slack-hitl-chat/service/notifier/slack"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML, environment variables, or both; environment
// variables override file values. The zero value is useful - all nested
// fields inherit their package defaults.
type Config struct {
	// PolicyRulesPath points at a YAML/JSON rule document; empty uses the
	// shipped defaults.
	PolicyRulesPath string `yaml:"policy_rules_path" envconfig:"POLICY_RULES_PATH"`

	// StoreBaseURL selects the durable store location (afs URL, e.g.
	// "file:///var/lib/hitl" or "mem://localhost/hitl"). Empty keeps
	// everything in process memory.
	StoreBaseURL string `yaml:"store_base_url" envconfig:"STORE_BASE_URL"`

	Approval ApprovalConfig `yaml:"approval" envconfig:"APPROVAL"`
	Executor ExecutorConfig `yaml:"executor" envconfig:"EXECUTOR"`
	Slack    slack.Config   `yaml:"slack" envconfig:"SLACK"`

	// Channel is the default approval channel when a trigger carries none.
	Channel string `yaml:"channel" envconfig:"CHANNEL"`

	Tracing TracingConfig `yaml:"tracing" envconfig:"TRACING"`
}

// ApprovalConfig tunes the pending-approval window.
type ApprovalConfig struct {
	// PendingExpiry bounds how long a request may wait for a decision.
	PendingExpiry time.Duration `yaml:"pending_expiry" envconfig:"PENDING_EXPIRY"`
	// PollInterval is the decision poll cadence.
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	// WaitTimeout bounds a caller's synchronous wait for an outcome.
	WaitTimeout time.Duration `yaml:"wait_timeout" envconfig:"WAIT_TIMEOUT"`
	// DedupTTL is the event replay suppression window.
	DedupTTL time.Duration `yaml:"dedup_ttl" envconfig:"DEDUP_TTL"`
	// TimeoutResolvesTo selects the terminal status of an expired pending
	// request: "rejected" (default) or "denied".
	TimeoutResolvesTo string `yaml:"timeout_resolves_to" envconfig:"TIMEOUT_RESOLVES_TO"`
}

// ExecutorConfig tunes retry behaviour for transient tool failures.
type ExecutorConfig struct {
	MaxAttempts int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	Backoff     time.Duration `yaml:"backoff" envconfig:"BACKOFF"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"ENABLED"`
	OutputFile string `yaml:"output_file" envconfig:"OUTPUT_FILE"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Approval: ApprovalConfig{
			PendingExpiry:     30 * time.Minute,
			PollInterval:      30 * time.Second,
			WaitTimeout:       10 * time.Minute,
			DedupTTL:          2 * time.Hour,
			TimeoutResolvesTo: "rejected",
		},
		Executor: ExecutorConfig{
			MaxAttempts: 6,
			Backoff:     100 * time.Millisecond,
		},
	}
}

// LoadConfig reads configuration from the given YAML path (empty path skips
// the file) and then applies HITL_-prefixed environment variables on top.
// A .env file in the working directory is honoured when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := envconfig.Process("HITL", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Approval.PendingExpiry < 0 {
		return fmt.Errorf("approval.pending_expiry must be >= 0")
	}
	if c.Approval.PollInterval < 0 {
		return fmt.Errorf("approval.poll_interval must be >= 0")
	}
	if c.Executor.MaxAttempts < 1 {
		return fmt.Errorf("executor.max_attempts must be >= 1")
	}
	switch c.Approval.TimeoutResolvesTo {
	case "", "rejected", "denied":
	default:
		return fmt.Errorf("approval.timeout_resolves_to must be rejected or denied, got %q", c.Approval.TimeoutResolvesTo)
	}
	return nil
}
