package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocatalog_api/internal/catalog/business/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
connections:
  - id: shop-1
    base-url: https://shop.example.com
    username: api
    password: secret
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("storage backend = %q", cfg.Storage.Backend)
	}
	if cfg.Progress.Backend != "memory" || cfg.Progress.Grace != 30*time.Second {
		t.Errorf("progress = %+v", cfg.Progress)
	}
	if cfg.Sync.BatchSize != 200 || cfg.Sync.ConcurrentBatches != 2 || cfg.Sync.PostPassBatchSize != 50 {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Sync.ListTimeout != 30*time.Second || cfg.Sync.BatchTimeout != 600*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.Sync.ListTimeout, cfg.Sync.BatchTimeout)
	}
	if _, ok := cfg.Connection("shop-1"); !ok {
		t.Error("connection shop-1 not found")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
progress:
  backend: redis
  grace: 5s
redis:
  addr: localhost:6379
sync:
  batch-size: 500
  concurrent-batches: 4
  list-timeout: 10s
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Progress.Grace != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Sync.BatchSize != 200 {
		t.Errorf("batch size must be capped at 200, got %d", cfg.Sync.BatchSize)
	}
	if cfg.Sync.ConcurrentBatches != 4 || cfg.Sync.ListTimeout != 10*time.Second {
		t.Errorf("sync = %+v", cfg.Sync)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	for name, body := range map[string]string{
		"unknown backend": "progress:\n  backend: etcd\n",
		"unknown storage": "storage:\n  backend: sqlite\n",
		"redis no addr":   "progress:\n  backend: redis\n",
		"duplicate ids":   "connections:\n  - id: a\n  - id: a\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConnectionValidate(t *testing.T) {
	tests := []struct {
		name  string
		conn  ConnectionConfig
		field string
	}{
		{"ok", ConnectionConfig{ID: "a", BaseURL: "https://x.example", Username: "u", Password: "p"}, ""},
		{"no id", ConnectionConfig{BaseURL: "https://x.example", Username: "u", Password: "p"}, "id"},
		{"relative url", ConnectionConfig{ID: "a", BaseURL: "/api", Username: "u", Password: "p"}, "base-url"},
		{"no password", ConnectionConfig{ID: "a", BaseURL: "https://x.example", Username: "u"}, "credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conn.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *models.ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Fatalf("got %v, want ConfigurationError on %s", err, tt.field)
			}
		})
	}
}

func TestPostgresConfigFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_NAME", "catalog")
	cfg := GetPostgresConfig()
	want := "host=db port=5432 user=postgres password=postgres dbname=catalog sslmode=disable"
	if got := cfg.GetConnectionString(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
