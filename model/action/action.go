package action

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a proposed action for policy evaluation.
type Category string

const (
	CategoryRead            Category = "read"
	CategoryWrite           Category = "write"
	CategoryPrivilegedWrite Category = "privileged_write"
	CategoryDestructive     Category = "destructive"
	CategoryDataExfil       Category = "data_exfiltration"
	CategoryFinancial       Category = "financial"
	CategoryExternalAPI     Category = "external_api_call"
	CategoryUserDataAccess  Category = "user_data_access"
	CategoryAWSRoleAccess   Category = "aws_role_access"
	CategoryOther           Category = "other"
)

// RiskWeight returns the default risk weight (1-10) for the category.
func (c Category) RiskWeight() int {
	switch c {
	case CategoryDataExfil:
		return 9
	case CategoryFinancial, CategoryAWSRoleAccess:
		return 8
	case CategoryPrivilegedWrite, CategoryDestructive:
		return 7
	case CategoryUserDataAccess:
		return 6
	case CategoryExternalAPI:
		return 5
	case CategoryWrite:
		return 4
	default:
		return 3
	}
}

// ParseCategory normalises a free-form category string; unknown values map
// to CategoryOther rather than failing, mirroring lenient intake.
func ParseCategory(value string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(value))) {
	case CategoryRead, CategoryWrite, CategoryPrivilegedWrite, CategoryDestructive,
		CategoryDataExfil, CategoryFinancial, CategoryExternalAPI,
		CategoryUserDataAccess, CategoryAWSRoleAccess:
		return Category(strings.ToLower(strings.TrimSpace(value)))
	}
	return CategoryOther
}

// Proposed describes a candidate operation an agent wants to perform, before
// any policy or human gating. Instances are immutable once created.
type Proposed struct {
	Category      Category               `json:"category" yaml:"category"`
	Resource      string                 `json:"resource,omitempty" yaml:"resource,omitempty"`
	Description   string                 `json:"description" yaml:"description"`
	IntendedTools []string               `json:"intendedTools,omitempty" yaml:"intendedTools,omitempty"`
	Requester     string                 `json:"requester,omitempty" yaml:"requester,omitempty"`
	Amount        *float64               `json:"amount,omitempty" yaml:"amount,omitempty"`
	Environment   string                 `json:"environment,omitempty" yaml:"environment,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ErrInvalidAction indicates a malformed proposed action.
var ErrInvalidAction = errors.New("action: invalid proposed action")

// Validate rejects actions that cannot be evaluated or executed.
func (p *Proposed) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidAction)
	}
	seen := map[string]bool{}
	for _, id := range p.IntendedTools {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty tool identifier", ErrInvalidAction)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate tool identifier %q", ErrInvalidAction, id)
		}
		seen[id] = true
	}
	return nil
}
