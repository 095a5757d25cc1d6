package dao

import (
	"context"
)

// Service is a generic keyed persistence contract shared by the stores in
// this module. K is the key type, T the stored entity.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// ConditionalService extends Service with a create-if-absent primitive used
// for dedup claims and single-writer guards.
type ConditionalService[K comparable, T any] interface {
	Service[K, T]

	// CreateIfAbsent stores t only when no record exists for its key. When a
	// record is already present it returns the existing record together with
	// ErrAlreadyExists.
	CreateIfAbsent(ctx context.Context, t *T) (*T, error)
}
