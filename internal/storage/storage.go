// Package storage defines the key-value persistence contract used for encrypted
// credentials. Backends live in subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// KeyValueStore persists opaque string values by key. A single Set must replace the
// value atomically: readers observe either the old value or the new one.
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Prober is implemented by backends that can test for a key without reading it.
type Prober interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Exists reports whether key is present, using the backend's Prober when available.
func Exists(ctx context.Context, s KeyValueStore, key string) (bool, error) {
	if p, ok := s.(Prober); ok {
		return p.Exists(ctx, key)
	}
	_, ok, err := s.Get(ctx, key)
	return ok, err
}
