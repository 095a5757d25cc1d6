package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

// Outcome is a policy decision for a proposed action.
type Outcome string

const (
	Allow           Outcome = "allow"
	Deny            Outcome = "deny"
	RequireApproval Outcome = "require_approval"
)

// ErrInvalidRuleSet indicates a misconfigured rule set. It is fatal and
// blocks startup.
var ErrInvalidRuleSet = errors.New("policy: invalid rule set")

// Rule is a deterministic gating rule. A rule matches when every populated
// predicate field matches the action; empty fields match everything.
type Rule struct {
	Name             string            `json:"name" yaml:"name"`
	Priority         int               `json:"priority" yaml:"priority"`
	Categories       []action.Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	Environments     []string          `json:"environments,omitempty" yaml:"environments,omitempty"`
	ResourcePrefixes []string          `json:"resourcePrefixes,omitempty" yaml:"resourcePrefixes,omitempty"`
	MinAmount        *float64          `json:"minAmount,omitempty" yaml:"minAmount,omitempty"`
	MaxAmount        *float64          `json:"maxAmount,omitempty" yaml:"maxAmount,omitempty"`
	Decision         Outcome           `json:"decision" yaml:"decision"`
}

// Matches reports whether the rule applies to the given action.
func (r *Rule) Matches(a *action.Proposed) bool {
	if len(r.Categories) > 0 && !containsCategory(r.Categories, a.Category) {
		return false
	}
	if len(r.Environments) > 0 && !containsFold(r.Environments, a.Environment) {
		return false
	}
	if len(r.ResourcePrefixes) > 0 && a.Resource != "" {
		if !hasAnyPrefix(a.Resource, r.ResourcePrefixes) {
			return false
		}
	}
	amount := 0.0
	if a.Amount != nil {
		amount = *a.Amount
	}
	if r.MinAmount != nil && amount < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amount > *r.MaxAmount {
		return false
	}
	return true
}

// Evaluation carries the outcome and the audit trail of an evaluation.
type Evaluation struct {
	Outcome     Outcome `json:"outcome"`
	MatchedRule string  `json:"matchedRule,omitempty"`
	Rationale   string  `json:"rationale,omitempty"`
}

// Engine evaluates proposed actions against a static, ordered rule set.
// The zero value is unusable; construct with New.
type Engine struct {
	rules []Rule
}

// New builds an engine from the supplied rules. Rules are evaluated in
// ascending priority order; ties keep their declaration order. An invalid
// rule set returns ErrInvalidRuleSet so callers can refuse to start.
func New(rules []Rule) (*Engine, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for i := range rules {
		rule := &rules[i]
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidRuleSet, i)
		}
		switch rule.Decision {
		case Allow, Deny, RequireApproval:
		default:
			return nil, fmt.Errorf("%w: rule %q has unknown decision %q", ErrInvalidRuleSet, rule.Name, rule.Decision)
		}
		if rule.MinAmount != nil && rule.MaxAmount != nil && *rule.MinAmount > *rule.MaxAmount {
			return nil, fmt.Errorf("%w: rule %q has minAmount > maxAmount", ErrInvalidRuleSet, rule.Name)
		}
	}
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	return &Engine{rules: ordered}, nil
}

// Evaluate returns the first matching rule's decision. When no rule matches
// the default is RequireApproval - fail-safe toward human review, never
// fail-open to Allow.
func (e *Engine) Evaluate(a *action.Proposed) Evaluation {
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Matches(a) {
			continue
		}
		return Evaluation{
			Outcome:     rule.Decision,
			MatchedRule: rule.Name,
			Rationale:   rationaleFor(rule.Decision, rule.Name),
		}
	}
	return Evaluation{
		Outcome:   RequireApproval,
		Rationale: "no matching rule; approval required by default",
	}
}

// Rules returns a copy of the ordered rule set, for audit surfaces.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

func rationaleFor(outcome Outcome, rule string) string {
	switch outcome {
	case Deny:
		return fmt.Sprintf("denied by policy rule %q", rule)
	case Allow:
		return fmt.Sprintf("allowed by policy rule %q", rule)
	default:
		return fmt.Sprintf("approval required by policy rule %q", rule)
	}
}

func containsCategory(categories []action.Category, c action.Category) bool {
	for _, candidate := range categories {
		if candidate == c {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(value string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
