package policy

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

// Document is the serialisable form of a rule set, loadable from YAML or
// JSON (yaml.v3 accepts both).
type Document struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Load parses a rule document from raw bytes.
func Load(data []byte) (*Engine, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	return New(doc.Rules)
}

// LoadFile reads and parses a rule document from the given path. An empty
// path yields an engine with the default rules.
func LoadFile(path string) (*Engine, error) {
	if path == "" {
		return New(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	return Load(data)
}

func amount(v float64) *float64 { return &v }

// DefaultRules returns the built-in rule set. Deny rules sort ahead of
// approval rules so that a denial always wins when both could match.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:         "deny_prod_exfiltration",
			Priority:     10,
			Categories:   []action.Category{action.CategoryDataExfil},
			Environments: []string{"prod", "production"},
			Decision:     Deny,
		},
		{
			Name:       "require_approval_for_aws_role_access",
			Priority:   20,
			Categories: []action.Category{action.CategoryAWSRoleAccess},
			Decision:   RequireApproval,
		},
		{
			Name:       "require_approval_for_privileged_writes",
			Priority:   30,
			Categories: []action.Category{action.CategoryPrivilegedWrite, action.CategoryDestructive},
			Decision:   RequireApproval,
		},
		{
			Name:       "financial_threshold_approval",
			Priority:   40,
			Categories: []action.Category{action.CategoryFinancial},
			MinAmount:  amount(100),
			Decision:   RequireApproval,
		},
		{
			Name:       "allow_reads",
			Priority:   50,
			Categories: []action.Category{action.CategoryRead},
			Decision:   Allow,
		},
	}
}

// awsRoleARN detects AWS IAM role ARNs in free-form text.
var awsRoleARN = regexp.MustCompile(`arn:aws:iam::\d{12}:role/[A-Za-z0-9+=,.@_/-]+`)

// Infer derives an approval category and target resource from a natural
// language description. It recognises AWS IAM role ARNs; anything else maps
// to CategoryOther with no resource.
func Infer(description string) (action.Category, string) {
	if match := awsRoleARN.FindString(description); match != "" {
		return action.CategoryAWSRoleAccess, match
	}
	return action.CategoryOther, ""
}
