package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/model/action"
	"github.com/chrisk60331/slack-hitl-chat/policy"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/dedup"
	"github.com/chrisk60331/slack-hitl-chat/service/executor"
	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
	"github.com/chrisk60331/slack-hitl-chat/service/session"
	"github.com/chrisk60331/slack-hitl-chat/tracing"
)

const (
	defaultPendingExpiry = 30 * time.Minute
	defaultPollInterval  = 30 * time.Second
	defaultWaitTimeout   = 10 * time.Minute
	defaultDedupTTL      = 2 * time.Hour

	// TimedOutReason is recorded when a pending request expires without a
	// human decision.
	TimedOutReason = "approval timed out"
)

// executionClaimPrefix namespaces the dedup key guarding the single
// transition into executing for a request id.
const executionClaimPrefix = "exec:"

// Service is the approval workflow.
type Service struct {
	engine   *policy.Engine
	store    approval.Store
	dedup    dedup.Service
	executor executor.Service
	notifier notifier.Service
	sessions session.Store

	pendingExpiry time.Duration
	pollInterval  time.Duration
	waitTimeout   time.Duration
	dedupTTL      time.Duration
	// timeoutStatus is the terminal status an expired pending request
	// resolves to: rejected by default, denied when configured.
	timeoutStatus approval.Status
	channel       string
}

// Option customises the workflow service.
type Option func(*Service)

// WithSessions attaches a thread session store so replies in a conversation
// thread correlate to their request.
func WithSessions(sessions session.Store) Option {
	return func(s *Service) { s.sessions = sessions }
}

// WithPendingExpiry sets how long a request may stay pending before the
// timeout sweep resolves it.
func WithPendingExpiry(d time.Duration) Option {
	return func(s *Service) { s.pendingExpiry = d }
}

// WithPollInterval sets the decision poll interval for WaitForOutcome.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithWaitTimeout bounds WaitForOutcome.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Service) { s.waitTimeout = d }
}

// WithDedupTTL sets the replay suppression window.
func WithDedupTTL(d time.Duration) Option {
	return func(s *Service) { s.dedupTTL = d }
}

// WithTimeoutStatus selects which terminal status an approval timeout
// resolves to; only rejected and denied are honoured.
func WithTimeoutStatus(status approval.Status) Option {
	return func(s *Service) {
		if status == approval.StatusRejected || status == approval.StatusDenied {
			s.timeoutStatus = status
		}
	}
}

// WithDefaultChannel sets the notification recipient used when a trigger
// carries no channel of its own.
func WithDefaultChannel(channel string) Option {
	return func(s *Service) { s.channel = channel }
}

// New creates the workflow over its collaborators. The notifier may be nil
// for headless deployments; notifications are then skipped.
func New(engine *policy.Engine, store approval.Store, dedupService dedup.Service, exec executor.Service, dispatcher notifier.Service, options ...Option) *Service {
	ret := &Service{
		engine:        engine,
		store:         store,
		dedup:         dedupService,
		executor:      exec,
		notifier:      dispatcher,
		pendingExpiry: defaultPendingExpiry,
		pollInterval:  defaultPollInterval,
		waitTimeout:   defaultWaitTimeout,
		dedupTTL:      defaultDedupTTL,
		timeoutStatus: approval.StatusRejected,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Submit runs a proposed action through policy and, depending on the
// decision, executes it immediately, records a denial, or parks it pending
// human approval. Duplicate events (same EventID within the dedup window)
// report the first submission's outcome without re-running side effects.
func (s *Service) Submit(ctx context.Context, trigger *Trigger) (*Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "workflow.submit", "SERVER")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if trigger.EventID != "" && s.dedup != nil {
		claim, claimErr := s.dedup.Claim(ctx, trigger.EventID, s.dedupTTL)
		if claimErr != nil {
			err = claimErr
			return nil, err
		}
		if !claim.FirstSeen {
			return s.replayOutcome(ctx, claim)
		}
	}

	proposed, buildErr := s.buildAction(trigger)
	if buildErr != nil {
		err = buildErr
		return nil, err
	}
	requestID := trigger.RequestID
	if requestID == "" {
		requestID = approval.RequestID(trigger.actionText())
	}
	span.WithAttributes(map[string]string{"request_id": requestID})
	if trigger.EventID != "" && s.dedup != nil {
		if resolveErr := s.dedup.Resolve(ctx, trigger.EventID, requestID); resolveErr != nil {
			log.Printf("workflow: resolve dedup %v: %v", trigger.EventID, resolveErr)
		}
	}
	s.ensureSession(ctx, trigger, requestID)

	evaluation := s.engine.Evaluate(proposed)
	switch evaluation.Outcome {
	case policy.Deny:
		return s.deny(ctx, requestID, trigger, proposed, evaluation)
	case policy.Allow:
		return s.allow(ctx, requestID, trigger, proposed, evaluation)
	default:
		return s.requireApproval(ctx, requestID, trigger, proposed, evaluation)
	}
}

// Decide applies a human decision to a pending request. Approval defaults
// the allowlist to all intended tools unless the approver restricts it, then
// executes; rejection records the synthesized result and notifies. A
// decision losing the race against a timeout (or a duplicate decision)
// surfaces dao.ErrConflict.
func (s *Service) Decide(ctx context.Context, decision *approval.Decision) (*approval.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "workflow.decide", "SERVER")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": decision.RequestID})

	if !decision.Approve {
		item, rejectErr := s.store.Transition(ctx, decision.RequestID,
			approval.StatusPendingApproval, approval.StatusRejected,
			func(item *approval.Item) error {
				item.Approver = decision.Approver
				item.Reason = decision.Reason
				item.Result = &approval.ExecutionResult{
					Status:      "rejected",
					Message:     approval.RejectedByHuman,
					CompletedAt: clock.Now(),
				}
				return nil
			})
		if rejectErr != nil {
			err = rejectErr
			return nil, err
		}
		s.notifyCompletion(ctx, item)
		return item, nil
	}

	item, approveErr := s.store.Transition(ctx, decision.RequestID,
		approval.StatusPendingApproval, approval.StatusApproved,
		func(item *approval.Item) error {
			item.Approver = decision.Approver
			item.Reason = decision.Reason
			allowed := decision.AllowedTools
			if len(allowed) == 0 {
				allowed = item.IntendedTools
			}
			item.AllowedTools = append([]string(nil), allowed...)
			return nil
		})
	if approveErr != nil {
		err = approveErr
		return nil, err
	}
	return s.execute(ctx, item.RequestID)
}

// ExpirePending resolves pending requests past their deadline to the
// configured timeout status. The conditional transition makes concurrent
// sweeps safe: exactly one invocation wins each expiry. Returns the number
// of requests this call resolved.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	items, err := s.store.List(ctx, dao.NewParameter(approval.ParamStatus, string(approval.StatusPendingApproval)))
	if err != nil {
		return 0, err
	}
	now := clock.Now()
	expired := 0
	for _, candidate := range items {
		if !candidate.Expired(now) {
			continue
		}
		item, transitionErr := s.store.Transition(ctx, candidate.RequestID,
			approval.StatusPendingApproval, s.timeoutStatus,
			func(item *approval.Item) error {
				item.Reason = TimedOutReason
				item.Result = &approval.ExecutionResult{
					Status:      string(s.timeoutStatus),
					Message:     TimedOutReason,
					CompletedAt: clock.Now(),
				}
				return nil
			})
		if transitionErr != nil {
			if errors.Is(transitionErr, dao.ErrConflict) {
				continue
			}
			return expired, transitionErr
		}
		expired++
		s.notifyCompletion(ctx, item)
	}
	return expired, nil
}

// WaitForOutcome polls until the request reaches a terminal state or the
// wait window closes; an undecided request reports a pending outcome rather
// than an error.
func (s *Service) WaitForOutcome(ctx context.Context, requestID string) (*Outcome, error) {
	item, err := approval.WaitForTerminal(ctx, s.store, requestID, s.pollInterval, s.waitTimeout)
	if err != nil {
		if errors.Is(err, approval.ErrWaitTimeout) && item != nil {
			return outcomeFor(item), nil
		}
		return nil, err
	}
	return outcomeFor(item), nil
}

// Status returns the caller-facing outcome of a request as currently stored.
func (s *Service) Status(ctx context.Context, requestID string) (*Outcome, error) {
	item, err := s.store.Load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return outcomeFor(item), nil
}

// List exposes store listing for audit surfaces.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*approval.Item, error) {
	return s.store.List(ctx, parameters...)
}

func (s *Service) buildAction(trigger *Trigger) (*action.Proposed, error) {
	proposed := trigger.Action
	if proposed == nil {
		category, resource := policy.Infer(trigger.ActionText)
		proposed = &action.Proposed{
			Category:    category,
			Resource:    resource,
			Description: trigger.ActionText,
			Requester:   trigger.Requester,
		}
	}
	if proposed.Requester == "" {
		proposed.Requester = trigger.Requester
	}
	if err := proposed.Validate(); err != nil {
		return nil, err
	}
	return proposed, nil
}

// replayOutcome reports a duplicate event's original outcome when one was
// resolved, or pending when the first processing is still in flight.
func (s *Service) replayOutcome(ctx context.Context, claim *dedup.Claim) (*Outcome, error) {
	if claim.OutcomeRef == "" {
		return &Outcome{Status: OutcomePending, Message: "duplicate event, original still processing"}, nil
	}
	item, err := s.store.Load(ctx, claim.OutcomeRef)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return &Outcome{Status: OutcomePending, RequestID: claim.OutcomeRef}, nil
		}
		return nil, err
	}
	return outcomeFor(item), nil
}

func (s *Service) deny(ctx context.Context, requestID string, trigger *Trigger, proposed *action.Proposed, evaluation policy.Evaluation) (*Outcome, error) {
	item := &approval.Item{
		RequestID:     requestID,
		Status:        approval.StatusDenied,
		Requester:     proposed.Requester,
		Action:        *proposed,
		IntendedTools: append([]string(nil), proposed.IntendedTools...),
		Reason:        evaluation.Rationale,
		Channel:       trigger.Channel,
		ThreadTS:      trigger.ThreadTS,
		CreatedAt:     clock.Now(),
	}
	if err := s.create(ctx, item); err != nil {
		return s.existingOutcome(ctx, requestID, err)
	}
	// Denials get an audit log entry, not a notification.
	log.Printf("workflow: denied request %v by rule %v", requestID, evaluation.MatchedRule)
	return outcomeFor(item), nil
}

func (s *Service) allow(ctx context.Context, requestID string, trigger *Trigger, proposed *action.Proposed, evaluation policy.Evaluation) (*Outcome, error) {
	item := &approval.Item{
		RequestID:     requestID,
		Status:        approval.StatusAllowed,
		Requester:     proposed.Requester,
		Action:        *proposed,
		IntendedTools: append([]string(nil), proposed.IntendedTools...),
		Reason:        evaluation.Rationale,
		Channel:       trigger.Channel,
		ThreadTS:      trigger.ThreadTS,
		CreatedAt:     clock.Now(),
	}
	if err := s.create(ctx, item); err != nil {
		return s.existingOutcome(ctx, requestID, err)
	}
	executed, err := s.execute(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return outcomeFor(executed), nil
}

func (s *Service) requireApproval(ctx context.Context, requestID string, trigger *Trigger, proposed *action.Proposed, evaluation policy.Evaluation) (*Outcome, error) {
	item := approval.NewPending(requestID, proposed, s.pendingExpiry)
	item.Reason = evaluation.Rationale
	item.Channel = trigger.Channel
	item.ThreadTS = trigger.ThreadTS
	if err := s.create(ctx, item); err != nil {
		return s.existingOutcome(ctx, requestID, err)
	}
	if s.notifier != nil {
		recipient := s.recipient(item)
		if _, postErr := s.notifier.Post(ctx, recipient, notifier.ApprovalPrompt(item)); postErr != nil {
			log.Printf("workflow: post approval prompt for %v: %v", requestID, postErr)
			return &Outcome{
				Status:    OutcomeApprovalFailed,
				RequestID: requestID,
				Message:   fmt.Sprintf("failed to request approval: %v", postErr),
			}, nil
		}
	}
	return outcomeFor(item), nil
}

// create persists a new item; dao.ErrAlreadyExists passes through so callers
// can collapse onto the earlier record for the same deterministic id.
func (s *Service) create(ctx context.Context, item *approval.Item) error {
	return s.store.Create(ctx, item)
}

// existingOutcome resolves a create conflict by reporting the already
// recorded item's outcome.
func (s *Service) existingOutcome(ctx context.Context, requestID string, createErr error) (*Outcome, error) {
	if !errors.Is(createErr, dao.ErrAlreadyExists) {
		return nil, createErr
	}
	item, err := s.store.Load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return outcomeFor(item), nil
}

// execute moves an allowed or approved item into executing, runs the tool
// plan, and records the terminal result. The transition into executing is
// doubly guarded: a dedup claim on the request id plus the store's
// conditional write, so a retried trigger cannot start a second execution.
func (s *Service) execute(ctx context.Context, requestID string) (*approval.Item, error) {
	if s.dedup != nil {
		claim, err := s.dedup.Claim(ctx, executionClaimPrefix+requestID, s.dedupTTL)
		if err != nil {
			return nil, err
		}
		if !claim.FirstSeen {
			return s.store.Load(ctx, requestID)
		}
	}
	item, err := s.store.Load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch item.Status {
	case approval.StatusAllowed, approval.StatusApproved:
	default:
		return item, nil
	}
	executing, err := s.store.Transition(ctx, requestID, item.Status, approval.StatusExecuting, nil)
	if err != nil {
		if errors.Is(err, dao.ErrConflict) {
			return s.store.Load(ctx, requestID)
		}
		return nil, err
	}

	result, execErr := s.executor.Execute(ctx, executing)
	if result == nil {
		result = &approval.ExecutionResult{Status: "failed", CompletedAt: clock.Now()}
		if execErr != nil {
			result.Message = execErr.Error()
		}
	}
	final := approval.StatusCompleted
	if execErr != nil || result.Status != "success" {
		final = approval.StatusExecutionFailed
	}
	terminal, err := s.store.Transition(ctx, requestID, approval.StatusExecuting, final,
		func(item *approval.Item) error {
			item.Result = result
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.notifyCompletion(ctx, terminal)
	return terminal, nil
}

// notifyCompletion delivers the final outcome back to the originating
// thread. Best effort: a delivery failure is logged, never allowed to undo a
// terminal transition.
func (s *Service) notifyCompletion(ctx context.Context, item *approval.Item) {
	if s.notifier == nil {
		return
	}
	recipient := s.recipient(item)
	if recipient == "" {
		return
	}
	if _, err := s.notifier.Post(ctx, recipient, notifier.Completion(item)); err != nil {
		log.Printf("workflow: completion notification for %v: %v", item.RequestID, err)
	}
}

func (s *Service) recipient(item *approval.Item) string {
	if item.Channel != "" {
		return item.Channel
	}
	return s.channel
}

func (s *Service) ensureSession(ctx context.Context, trigger *Trigger, requestID string) {
	if s.sessions == nil || trigger.Channel == "" || trigger.ThreadTS == "" {
		return
	}
	key := session.NewKey(trigger.Channel, trigger.ThreadTS)
	if _, _, err := s.sessions.Ensure(ctx, key, requestID, session.DefaultTTL); err != nil {
		log.Printf("workflow: ensure session %v: %v", key, err)
	}
}

// SessionRequest resolves the request id bound to a conversation thread, so
// a reply in the thread can address its approval record.
func (s *Service) SessionRequest(ctx context.Context, channel, threadTS string) (string, error) {
	if s.sessions == nil {
		return "", nil
	}
	return s.sessions.Lookup(ctx, session.NewKey(channel, threadTS))
}
