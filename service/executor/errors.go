package executor

import "errors"

var (
	// ErrNotApproved is returned when Execute is invoked for an item whose
	// status does not permit execution.
	ErrNotApproved = errors.New("executor: item is not executable")

	// ErrNoTools is returned when an item carries no tool plan at all.
	ErrNoTools = errors.New("executor: no tools to execute")
)

// Transient marks an error as retryable. Providers wrap infrastructure
// hiccups with it; everything else fails without retry.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return "transient: " + t.Err.Error() }

func (t *Transient) Unwrap() error { return t.Err }

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	var transient *Transient
	return errors.As(err, &transient)
}
