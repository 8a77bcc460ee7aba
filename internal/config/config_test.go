package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for name := range legacyEnv {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearLegacyEnv(t)

	cfg, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 60s", cfg.Server.RequestTimeout)
	}
	if cfg.Upstream.SiteName != "Judge0 IDE" {
		t.Errorf("Upstream.SiteName = %q", cfg.Upstream.SiteName)
	}
	if cfg.Relay.DefaultModel != "openai/gpt-4o-mini" {
		t.Errorf("Relay.DefaultModel = %q", cfg.Relay.DefaultModel)
	}
	if cfg.Storage.Type != StorageMemory {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Upstream.APIKey != "" {
		t.Error("Upstream.APIKey set without any source")
	}
}

func TestLoad_File(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("TEST_OPENROUTER_KEY", "or-secret")

	path := writeConfig(t, `
server:
  port: 8088
  debug_errors: true
  request_timeout: 15s
upstream:
  api_key: ${TEST_OPENROUTER_KEY}
relay:
  default_model: meta-llama/llama-3-8b-instruct
  models:
    claude-haiku: anthropic/claude-3.5-haiku
storage:
  type: sqlite
  sqlite:
    path: /tmp/creds.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8088 || !cfg.Server.DebugErrors {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 15s", cfg.Server.RequestTimeout)
	}
	if cfg.Upstream.APIKey != "or-secret" {
		t.Errorf("Upstream.APIKey = %q, want substituted value", cfg.Upstream.APIKey)
	}
	if cfg.Relay.Models["claude-haiku"] != "anthropic/claude-3.5-haiku" {
		t.Errorf("Relay.Models = %v", cfg.Relay.Models)
	}
	if cfg.Storage.Type != StorageSQLite || cfg.Storage.SQLite.Path != "/tmp/creds.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearLegacyEnv(t)
	path := writeConfig(t, "server:\n  port: 8088\n")
	t.Setenv("JUDGE0_SERVER__PORT", "9000")
	t.Setenv("JUDGE0_STORAGE__TYPE", "redis")
	t.Setenv("JUDGE0_STORAGE__REDIS__ADDR", "cache:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.Type != StorageRedis || cfg.Storage.Redis.Addr != "cache:6380" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "legacy-key")
	t.Setenv("PORT", "4000")

	cfg, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Upstream.APIKey != "legacy-key" {
		t.Errorf("Upstream.APIKey = %q", cfg.Upstream.APIKey)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}

	t.Run("prefixed variable wins", func(t *testing.T) {
		t.Setenv("JUDGE0_UPSTREAM__API_KEY", "prefixed-key")

		cfg, err := Load(missingPath(t))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Upstream.APIKey != "prefixed-key" {
			t.Errorf("Upstream.APIKey = %q, want prefixed-key", cfg.Upstream.APIKey)
		}
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad storage type", "storage:\n  type: etcd\n", "unknown storage.type"},
		{"port out of range", "server:\n  port: 70000\n", "out of range"},
		{"malformed yaml", "server: [\n", "failed to load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLegacyEnv(t)

			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple substitution", "${TEST_VAR}", "test-value"},
		{"substitution in string", "prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"no substitution", "plain-string", "plain-string"},
		{"undefined var", "${UNDEFINED_VAR_FOR_TEST}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteEnvVars(tt.input); got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
