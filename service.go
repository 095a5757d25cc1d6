package hitl

import (
	"context"
	"strings"

	"github.com/chrisk60331/slack-hitl-chat/policy"
	"github.com/chrisk60331/slack-hitl-chat/runtime/workflow"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	afstore "github.com/chrisk60331/slack-hitl-chat/service/approval/fs"
	amemory "github.com/chrisk60331/slack-hitl-chat/service/approval/memory"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/dedup"
	dfs "github.com/chrisk60331/slack-hitl-chat/service/dedup/fs"
	dmemory "github.com/chrisk60331/slack-hitl-chat/service/dedup/memory"
	"github.com/chrisk60331/slack-hitl-chat/service/executor"
	"github.com/chrisk60331/slack-hitl-chat/service/messaging"
	mmemory "github.com/chrisk60331/slack-hitl-chat/service/messaging/memory"
	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
	"github.com/chrisk60331/slack-hitl-chat/service/notifier/slack"
	"github.com/chrisk60331/slack-hitl-chat/service/session"
	sfs "github.com/chrisk60331/slack-hitl-chat/service/session/fs"
	smemory "github.com/chrisk60331/slack-hitl-chat/service/session/memory"
	"github.com/chrisk60331/slack-hitl-chat/service/tool"
	"github.com/chrisk60331/slack-hitl-chat/tracing"
)

// Service is the high-level façade wiring policy, store, dispatcher,
// executor and workflow together.
type Service struct {
	config *Config

	engine        *policy.Engine
	approvalStore approval.Store
	dedupService  dedup.Service
	sessionStore  session.Store
	notifier      notifier.Service
	registry      *tool.Registry
	toolClient    tool.Client
	executor      executor.Service
	queue         messaging.Queue[workflow.Trigger]

	workflow *workflow.Service
	consumer *workflow.Consumer
}

// New creates a fully wired service. Components not overridden by options
// are built from configuration; a nil or absent configuration falls back to
// in-memory stores and the default policy rules.
func New(options ...Option) (*Service, error) {
	s := &Service{registry: tool.NewRegistry()}
	for _, option := range options {
		option(s)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init("hitl", "0.1.0", s.config.Tracing.OutputFile); err != nil {
			return err
		}
	}
	if s.engine == nil {
		engine, err := policy.LoadFile(s.config.PolicyRulesPath)
		if err != nil {
			return err
		}
		s.engine = engine
	}
	base := strings.TrimRight(s.config.StoreBaseURL, "/")
	if s.approvalStore == nil {
		if base != "" {
			s.approvalStore = afstore.New(base + "/approvals")
		} else {
			s.approvalStore = amemory.New()
		}
	}
	if s.dedupService == nil {
		if base != "" {
			s.dedupService = dfs.New(base + "/dedup")
		} else {
			s.dedupService = dmemory.New()
		}
	}
	if s.sessionStore == nil {
		if base != "" {
			s.sessionStore = sfs.New(base + "/sessions")
		} else {
			s.sessionStore = smemory.New()
		}
	}
	if s.notifier == nil && (s.config.Slack.Token != "" || s.config.Slack.SecretsURL != "") {
		s.notifier = slack.New(s.config.Slack)
	}
	if s.toolClient == nil {
		s.toolClient = s.registry.AsClient()
	}
	if s.executor == nil {
		s.executor = executor.New(s.toolClient,
			executor.WithMaxAttempts(s.config.Executor.MaxAttempts),
			executor.WithBackoff(s.config.Executor.Backoff))
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[workflow.Trigger](mmemory.DefaultConfig())
	}

	timeoutStatus := approval.StatusRejected
	if s.config.Approval.TimeoutResolvesTo == "denied" {
		timeoutStatus = approval.StatusDenied
	}
	s.workflow = workflow.New(s.engine, s.approvalStore, s.dedupService, s.executor, s.notifier,
		workflow.WithSessions(s.sessionStore),
		workflow.WithPendingExpiry(s.config.Approval.PendingExpiry),
		workflow.WithPollInterval(s.config.Approval.PollInterval),
		workflow.WithWaitTimeout(s.config.Approval.WaitTimeout),
		workflow.WithDedupTTL(s.config.Approval.DedupTTL),
		workflow.WithTimeoutStatus(timeoutStatus),
		workflow.WithDefaultChannel(s.config.Channel))
	s.consumer = workflow.NewConsumer(s.workflow, s.queue)
	return nil
}

// Workflow exposes the underlying workflow service.
func (s *Service) Workflow() *workflow.Service { return s.workflow }

// Registry exposes the tool provider registry.
func (s *Service) Registry() *tool.Registry { return s.registry }

// Submit runs a trigger through the workflow synchronously.
func (s *Service) Submit(ctx context.Context, trigger *workflow.Trigger) (*workflow.Outcome, error) {
	return s.workflow.Submit(ctx, trigger)
}

// Enqueue accepts a trigger for asynchronous processing; Start must be
// running for it to be picked up.
func (s *Service) Enqueue(ctx context.Context, trigger *workflow.Trigger) error {
	return s.consumer.Enqueue(ctx, trigger)
}

// Start launches the asynchronous trigger consumer.
func (s *Service) Start(ctx context.Context) {
	s.consumer.Start(ctx)
}

// Decide applies a human decision to a pending request.
func (s *Service) Decide(ctx context.Context, decision *approval.Decision) (*approval.Item, error) {
	return s.workflow.Decide(ctx, decision)
}

// WaitForOutcome blocks until the request resolves or the wait window
// closes.
func (s *Service) WaitForOutcome(ctx context.Context, requestID string) (*workflow.Outcome, error) {
	return s.workflow.WaitForOutcome(ctx, requestID)
}

// Status reports the current outcome of a request.
func (s *Service) Status(ctx context.Context, requestID string) (*workflow.Outcome, error) {
	return s.workflow.Status(ctx, requestID)
}

// ExpirePending sweeps timed-out pending requests.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	return s.workflow.ExpirePending(ctx)
}

// List returns approval records matching the given filters, e.g.
// dao.NewParameter(approval.ParamStatus, "pending_approval").
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*approval.Item, error) {
	return s.workflow.List(ctx, parameters...)
}
