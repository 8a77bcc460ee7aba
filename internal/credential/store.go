package credential

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/provider"
	"github.com/judge0/llm-companion/internal/storage"
)

// KeyPrefix namespaces stored credentials: <app prefix>_<schema version>_.
const KeyPrefix = "judge0_llm_v1_"

// StorageKey returns the persistence key for a provider's credential.
func StorageKey(providerID string) string {
	return KeyPrefix + providerID
}

// Store validates, encrypts, and persists API keys per provider.
type Store struct {
	kv       storage.KeyValueStore
	cipher   *Cipher
	registry *provider.Registry
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRegistry overrides the provider catalog used for validation.
func WithRegistry(r *provider.Registry) StoreOption {
	return func(s *Store) {
		s.registry = r
	}
}

// WithLogger sets the logger. Keys and blobs are never logged.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a credential store over kv.
func NewStore(kv storage.KeyValueStore, cipher *Cipher, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kv,
		cipher:   cipher,
		registry: provider.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks, in order, that apiKey is non-blank, that providerID is known, and
// that apiKey matches the vendor's key format.
func (s *Store) Validate(providerID, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return domain.ErrValidationFailed(domain.CodeEmptyKey, "API key cannot be empty")
	}

	d, err := s.registry.Resolve(providerID)
	if err != nil {
		return err
	}

	if !d.ValidKey(apiKey) {
		return domain.ErrValidationFailed(domain.CodeInvalidFormat,
			fmt.Sprintf("invalid %s API key format", d.Vendor))
	}
	return nil
}

// Save validates and encrypts apiKey, then stores it, replacing any previous key for
// the provider.
func (s *Store) Save(ctx context.Context, providerID, apiKey string) error {
	if err := s.Validate(providerID, apiKey); err != nil {
		return err
	}

	blob, err := s.cipher.Encrypt(apiKey)
	if err != nil {
		s.logger.Error("credential encryption failed", "provider", providerID)
		return err
	}

	if err := s.kv.Set(ctx, StorageKey(providerID), blob); err != nil {
		s.logger.Error("credential write failed", "provider", providerID, "error", err)
		return domain.ErrStorageFailed(domain.CodeWriteFailed, "failed to save API key", err)
	}

	s.logger.Info("credential saved", "provider", providerID)
	return nil
}

// Load returns the decrypted key for providerID.
func (s *Store) Load(ctx context.Context, providerID string) (string, error) {
	blob, ok, err := s.kv.Get(ctx, StorageKey(providerID))
	if err != nil {
		s.logger.Error("credential read failed", "provider", providerID, "error", err)
		return "", domain.ErrStorageFailed(domain.CodeReadFailed, "failed to read API key", err)
	}
	if !ok {
		return "", domain.ErrCredentialNotFound(providerID)
	}

	apiKey, err := s.cipher.Decrypt(blob)
	if err != nil {
		s.logger.Warn("credential decryption failed", "provider", providerID)
		return "", err
	}
	return apiKey, nil
}

// Exists reports whether a credential is stored for providerID without decrypting it.
func (s *Store) Exists(ctx context.Context, providerID string) (bool, error) {
	ok, err := storage.Exists(ctx, s.kv, StorageKey(providerID))
	if err != nil {
		return false, domain.ErrStorageFailed(domain.CodeReadFailed, "failed to check API key", err)
	}
	return ok, nil
}

// Delete removes the credential for providerID. Removing an absent credential
// succeeds.
func (s *Store) Delete(ctx context.Context, providerID string) error {
	if err := s.kv.Delete(ctx, StorageKey(providerID)); err != nil {
		s.logger.Error("credential delete failed", "provider", providerID, "error", err)
		return domain.ErrStorageFailed(domain.CodeDeleteFailed, "failed to delete API key", err)
	}
	s.logger.Info("credential deleted", "provider", providerID)
	return nil
}

// Configured returns the catalog entries that have a stored credential, in catalog
// order.
func (s *Store) Configured(ctx context.Context) ([]provider.Descriptor, error) {
	var out []provider.Descriptor
	for d := range s.registry.All() {
		ok, err := s.Exists(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}
