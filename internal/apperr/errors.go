// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrValidation marks input that fails a precondition; nothing was changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an operation on an unknown asset id.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failed durable write; the store kept its last
	// successfully persisted state.
	ErrPersistence = errors.New("persistence failed")
	// ErrProjection marks a failed derived-entity sync after a committed
	// store mutation. The mutation is not rolled back; the registry heals on
	// the next resync.
	ErrProjection = errors.New("projection failed")
)
