// Package keyring stores values in the operating system's credential manager
// (macOS Keychain, Secret Service, Windows Credential Manager).
package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/judge0/llm-companion/internal/storage"
)

// DefaultService is the keyring service name entries are filed under.
const DefaultService = "judge0-llm"

// Store is an OS keyring implementation of storage.KeyValueStore. Keys map to keyring
// users within one service.
type Store struct {
	service string
}

var _ storage.KeyValueStore = (*Store)(nil)

// New creates a store filing entries under service.
func New(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q from keyring: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("failed to write %q to keyring: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %q from keyring: %w", key, err)
	}
	return nil
}

// Close is a no-op; the keyring has no connection to release.
func (s *Store) Close() error {
	return nil
}
