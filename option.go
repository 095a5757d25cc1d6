package hitl

import (
	"github.com/chrisk60331/slack-hitl-chat/policy"
	"github.com/chrisk60331/slack-hitl-chat/runtime/workflow"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/dedup"
	"github.com/chrisk60331/slack-hitl-chat/service/executor"
	"github.com/chrisk60331/slack-hitl-chat/service/messaging"
	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
	"github.com/chrisk60331/slack-hitl-chat/service/session"
	"github.com/chrisk60331/slack-hitl-chat/service/tool"
)

// Option customises the Service façade.
type Option func(s *Service)

// WithConfig supplies a pre-built configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithPolicyEngine overrides the rule engine built from configuration.
func WithPolicyEngine(engine *policy.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithApprovalStore overrides the approval store.
func WithApprovalStore(store approval.Store) Option {
	return func(s *Service) { s.approvalStore = store }
}

// WithDedupService overrides the dedup layer.
func WithDedupService(service dedup.Service) Option {
	return func(s *Service) { s.dedupService = service }
}

// WithSessionStore overrides the thread session store.
func WithSessionStore(store session.Store) Option {
	return func(s *Service) { s.sessionStore = store }
}

// WithNotifier overrides the notification dispatcher.
func WithNotifier(dispatcher notifier.Service) Option {
	return func(s *Service) { s.notifier = dispatcher }
}

// WithToolClient sets the external tool-execution client used when no
// provider registry is supplied.
func WithToolClient(client tool.Client) Option {
	return func(s *Service) { s.toolClient = client }
}

// WithToolProvider registers a tool provider under an alias.
func WithToolProvider(alias string, client tool.Client) Option {
	return func(s *Service) { s.registry.Register(alias, client) }
}

// WithDisabledTools disables specific tools of a provider alias.
func WithDisabledTools(alias string, names ...string) Option {
	return func(s *Service) { s.registry.Disable(alias, names...) }
}

// WithExecutor overrides the executor.
func WithExecutor(service executor.Service) Option {
	return func(s *Service) { s.executor = service }
}

// WithQueue overrides the trigger queue backing asynchronous submission.
func WithQueue(queue messaging.Queue[workflow.Trigger]) Option {
	return func(s *Service) { s.queue = queue }
}
