// Package policy decides whether a proposed action may execute directly,
// must be approved by a human first, or is denied outright. Evaluation is a
// pure function of the static rule set and the action - no network or storage
// access - so it can be exercised with table-driven tests.
package policy
