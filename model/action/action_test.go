package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		input    string
		expected Category
	}{
		{"read", CategoryRead},
		{" Privileged_Write ", CategoryPrivilegedWrite},
		{"DESTRUCTIVE", CategoryDestructive},
		{"aws_role_access", CategoryAWSRoleAccess},
		{"nonsense", CategoryOther},
		{"", CategoryOther},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, ParseCategory(testCase.input), testCase.input)
	}
}

func TestRiskWeightOrdering(t *testing.T) {
	// Exfiltration outranks everything; reads stay at the bottom.
	assert.Greater(t, CategoryDataExfil.RiskWeight(), CategoryFinancial.RiskWeight())
	assert.Greater(t, CategoryFinancial.RiskWeight(), CategoryPrivilegedWrite.RiskWeight())
	assert.Greater(t, CategoryPrivilegedWrite.RiskWeight(), CategoryWrite.RiskWeight())
	assert.Greater(t, CategoryWrite.RiskWeight(), CategoryRead.RiskWeight())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		description string
		input       *Proposed
		valid       bool
	}{
		{
			description: "valid action",
			input: &Proposed{
				Category:      CategoryPrivilegedWrite,
				Description:   "suspend user bob@example.com",
				IntendedTools: []string{"google/suspend_user"},
			},
			valid: true,
		},
		{
			description: "empty description",
			input:       &Proposed{Category: CategoryRead, Description: "  "},
		},
		{
			description: "blank tool id",
			input:       &Proposed{Description: "x", IntendedTools: []string{""}},
		},
		{
			description: "duplicate tool id",
			input:       &Proposed{Description: "x", IntendedTools: []string{"a/b", "a/b"}},
		},
		{
			description: "nil action",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			err := testCase.input.Validate()
			if testCase.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAction)
		})
	}
}
