package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

func TestEngineEvaluate(t *testing.T) {
	engine, err := New(nil)
	require.NoError(t, err)

	amount := func(v float64) *float64 { return &v }
	testCases := []struct {
		description string
		input       *action.Proposed
		expected    Outcome
		rule        string
	}{
		{
			description: "read actions auto-allowed",
			input:       &action.Proposed{Category: action.CategoryRead, Description: "list users"},
			expected:    Allow,
			rule:        "allow_reads",
		},
		{
			description: "prod exfiltration denied",
			input:       &action.Proposed{Category: action.CategoryDataExfil, Environment: "prod", Description: "export all user emails"},
			expected:    Deny,
			rule:        "deny_prod_exfiltration",
		},
		{
			description: "non-prod exfiltration falls through to default",
			input:       &action.Proposed{Category: action.CategoryDataExfil, Environment: "dev", Description: "export test emails"},
			expected:    RequireApproval,
		},
		{
			description: "privileged write requires approval",
			input:       &action.Proposed{Category: action.CategoryPrivilegedWrite, Description: "suspend user"},
			expected:    RequireApproval,
			rule:        "require_approval_for_privileged_writes",
		},
		{
			description: "aws role access requires approval",
			input:       &action.Proposed{Category: action.CategoryAWSRoleAccess, Description: "assume admin role"},
			expected:    RequireApproval,
			rule:        "require_approval_for_aws_role_access",
		},
		{
			description: "financial over threshold requires approval",
			input:       &action.Proposed{Category: action.CategoryFinancial, Amount: amount(250), Description: "refund"},
			expected:    RequireApproval,
			rule:        "financial_threshold_approval",
		},
		{
			description: "financial under threshold falls through to default",
			input:       &action.Proposed{Category: action.CategoryFinancial, Amount: amount(20), Description: "refund"},
			expected:    RequireApproval,
		},
		{
			description: "unknown category defaults to approval",
			input:       &action.Proposed{Category: action.CategoryOther, Description: "do something"},
			expected:    RequireApproval,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			evaluation := engine.Evaluate(testCase.input)
			assert.Equal(t, testCase.expected, evaluation.Outcome)
			assert.Equal(t, testCase.rule, evaluation.MatchedRule)
		})
	}
}

func TestEngineNoMatchingRuleFailsSafe(t *testing.T) {
	// An engine whose only rule never matches must still require approval.
	engine, err := New([]Rule{
		{Name: "narrow", Priority: 1, Categories: []action.Category{action.CategoryRead}, Decision: Allow},
	})
	require.NoError(t, err)
	evaluation := engine.Evaluate(&action.Proposed{Category: action.CategoryDestructive, Description: "drop database"})
	assert.Equal(t, RequireApproval, evaluation.Outcome)
	assert.Empty(t, evaluation.MatchedRule)
}

func TestEnginePriorityOrder(t *testing.T) {
	// Lower priority evaluates first regardless of declaration order.
	engine, err := New([]Rule{
		{Name: "allow_all", Priority: 100, Decision: Allow},
		{Name: "deny_writes", Priority: 5, Categories: []action.Category{action.CategoryWrite}, Decision: Deny},
	})
	require.NoError(t, err)

	evaluation := engine.Evaluate(&action.Proposed{Category: action.CategoryWrite, Description: "update record"})
	assert.Equal(t, Deny, evaluation.Outcome)
	assert.Equal(t, "deny_writes", evaluation.MatchedRule)

	evaluation = engine.Evaluate(&action.Proposed{Category: action.CategoryRead, Description: "read record"})
	assert.Equal(t, Allow, evaluation.Outcome)
}

func TestEngineDeterministic(t *testing.T) {
	engine, err := New(nil)
	require.NoError(t, err)
	input := &action.Proposed{Category: action.CategoryPrivilegedWrite, Description: "suspend user"}
	first := engine.Evaluate(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Evaluate(input))
	}
}

func TestNewInvalidRuleSet(t *testing.T) {
	amount := func(v float64) *float64 { return &v }
	testCases := []struct {
		description string
		rules       []Rule
	}{
		{
			description: "missing name",
			rules:       []Rule{{Priority: 1, Decision: Allow}},
		},
		{
			description: "unknown decision",
			rules:       []Rule{{Name: "bad", Priority: 1, Decision: "maybe"}},
		},
		{
			description: "inverted amount range",
			rules:       []Rule{{Name: "bad", Priority: 1, Decision: Allow, MinAmount: amount(10), MaxAmount: amount(1)}},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			_, err := New(testCase.rules)
			assert.ErrorIs(t, err, ErrInvalidRuleSet)
		})
	}
}

func TestLoadRuleDocument(t *testing.T) {
	data := []byte(`
rules:
  - name: deny_destructive
    priority: 1
    categories: [destructive]
    decision: deny
  - name: allow_reads
    priority: 2
    categories: [read]
    decision: allow
`)
	engine, err := Load(data)
	require.NoError(t, err)
	assert.Len(t, engine.Rules(), 2)

	evaluation := engine.Evaluate(&action.Proposed{Category: action.CategoryDestructive, Description: "rm -rf"})
	assert.Equal(t, Deny, evaluation.Outcome)
}

func TestLoadInvalidDocument(t *testing.T) {
	_, err := Load([]byte("rules: {not a list}"))
	assert.ErrorIs(t, err, ErrInvalidRuleSet)
}

func TestInfer(t *testing.T) {
	category, resource := Infer("please assume arn:aws:iam::123456789012:role/AdminRole for deploy")
	assert.Equal(t, action.CategoryAWSRoleAccess, category)
	assert.Equal(t, "arn:aws:iam::123456789012:role/AdminRole", resource)

	category, resource = Infer("suspend user bob@example.com")
	assert.Equal(t, action.CategoryOther, category)
	assert.Empty(t, resource)
}
