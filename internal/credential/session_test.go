package credential

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestSession_KeyIsStable(t *testing.T) {
	s := NewSession()

	first, err := s.Key()
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if len(first) != KeySize {
		t.Fatalf("len(Key()) = %d, want %d", len(first), KeySize)
	}

	second, _ := s.Key()
	if !bytes.Equal(first, second) {
		t.Error("Key() returned a different key on second call")
	}
}

func TestSession_KeyReturnsCopy(t *testing.T) {
	s := NewSession()
	k, _ := s.Key()
	clear(k)

	again, _ := s.Key()
	if bytes.Equal(k, again) {
		t.Error("mutating returned key changed the session key")
	}
}

func TestSession_EndRotates(t *testing.T) {
	s := NewSession()
	before, _ := s.Key()
	if !s.Active() {
		t.Fatal("Active() = false after Key()")
	}

	s.End()
	if s.Active() {
		t.Fatal("Active() = true after End()")
	}

	after, err := s.Key()
	if err != nil {
		t.Fatalf("Key() after End error = %v", err)
	}
	if bytes.Equal(before, after) {
		t.Error("Key() after End returned the discarded key")
	}
}

func TestSession_ConcurrentFirstUse(t *testing.T) {
	s := NewSession()

	const n = 16
	keys := make([][]byte, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], _ = s.Key()
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if !bytes.Equal(keys[0], keys[i]) {
			t.Fatalf("goroutine %d observed a different key", i)
		}
	}
}

func TestSession_EntropyFailure(t *testing.T) {
	s := &Session{random: failingReader{}}
	if _, err := s.Key(); err == nil {
		t.Fatal("Key() error = nil, want entropy failure")
	}
	if s.Active() {
		t.Error("Active() = true after failed key generation")
	}
}
