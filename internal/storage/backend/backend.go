// Package backend opens the credential storage backend named in configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/judge0/llm-companion/internal/config"
	"github.com/judge0/llm-companion/internal/storage"
	"github.com/judge0/llm-companion/internal/storage/keyring"
	"github.com/judge0/llm-companion/internal/storage/memory"
	"github.com/judge0/llm-companion/internal/storage/redis"
	"github.com/judge0/llm-companion/internal/storage/sqlite"
)

// Open returns the backend for cfg.Type.
func Open(ctx context.Context, cfg config.StorageConfig) (storage.KeyValueStore, error) {
	switch cfg.Type {
	case "", config.StorageMemory:
		return memory.New(), nil
	case config.StorageSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		return sqlite.New(cfg.SQLite.Path)
	case config.StorageRedis:
		rc := redis.DefaultConfig()
		if cfg.Redis.Addr != "" {
			rc.Addr = cfg.Redis.Addr
		}
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		return redis.New(ctx, rc)
	case config.StorageKeyring:
		return keyring.New(cfg.Keyring.Service), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
