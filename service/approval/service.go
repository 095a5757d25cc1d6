package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisk60331/slack-hitl-chat/service/dao"
)

var (
	// ErrInvalidTransition is returned when the requested status move does
	// not follow the transition graph.
	ErrInvalidTransition = errors.New("approval: invalid status transition")

	// ErrToolsNotSubset is returned when a mutation would leave
	// AllowedTools outside IntendedTools.
	ErrToolsNotSubset = errors.New("approval: allowed tools exceed intended tools")
)

// Store persists approval items and serialises their transitions.
//
// Transition is the single synchronization primitive of the workflow: it
// applies mutate and moves the item from status `from` to `to` only when the
// current status still equals `from`. A lost race returns dao.ErrConflict
// and the item is left untouched - at most one writer wins each step.
type Store interface {
	Create(ctx context.Context, item *Item) error

	Load(ctx context.Context, requestID string) (*Item, error)

	Transition(ctx context.Context, requestID string, from, to Status, mutate func(*Item) error) (*Item, error)

	List(ctx context.Context, parameters ...*dao.Parameter) ([]*Item, error)
}

// List filter parameter names understood by Store implementations.
const (
	ParamStatus    = "status"
	ParamRequester = "requester"
)

// ValidateTransition checks the status graph and the tool subset invariant
// on a mutated item. Store implementations call it before committing.
func ValidateTransition(from, to Status, item *Item) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if !ToolsSubset(item.AllowedTools, item.IntendedTools) {
		return ErrToolsNotSubset
	}
	return nil
}
