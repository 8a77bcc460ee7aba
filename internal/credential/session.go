// Package credential encrypts third-party API keys with a per-process session key and
// persists them, one entry per provider, in a storage.KeyValueStore.
package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// KeySize is the session key length in bytes (AES-256).
const KeySize = 32

// Session owns the symmetric key for one companion process. The key is generated on
// first use, held only in memory, and discarded by End. Blobs written under an ended
// session cannot be decrypted by a later one.
type Session struct {
	mu     sync.Mutex
	key    []byte
	random io.Reader
}

// NewSession creates a session whose key is drawn from crypto/rand.
func NewSession() *Session {
	return &Session{random: rand.Reader}
}

// Key returns the session key, generating it if absent. Concurrent first calls observe
// the same key.
func (s *Session) Key() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		key := make([]byte, KeySize)
		if _, err := io.ReadFull(s.random, key); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		s.key = key
	}

	out := make([]byte, len(s.key))
	copy(out, s.key)
	return out, nil
}

// Active reports whether a key has been generated and not yet discarded.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}

// End zeroes and discards the key. The next Key call generates a fresh one.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.key)
	s.key = nil
}
