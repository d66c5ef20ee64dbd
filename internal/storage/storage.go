// Package storage provides key/value backends with browser-storage
// semantics: each key holds one serialized string value.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetItem when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Backend reads and writes whole values under string keys.
type Backend interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// UpdateFunc receives the current value of a key, with found false when the
// key has never been written, and returns the value to store in its place.
type UpdateFunc func(current string, found bool) (string, error)

// Updater is implemented by backends that can read-modify-write one key
// atomically across processes. An error from fn aborts the update and is
// returned unchanged.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
