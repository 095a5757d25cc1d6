package dao

import "errors"

// Sentinel errors let callers detect conditions via errors.Is instead of
// string comparison.

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID indicates an empty or otherwise invalid key.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist nil.
	ErrNilEntity = errors.New("dao: nil entity")

	// ErrAlreadyExists is returned by conditional creates when a record with
	// the same key is already present.
	ErrAlreadyExists = errors.New("dao: already exists")

	// ErrConflict is returned when a conditional update loses the race with
	// a concurrent writer.
	ErrConflict = errors.New("dao: conditional check failed")
)
