package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gocatalog_api/config/values"
	"gocatalog_api/internal/catalog/business/models"
)

const DefaultProgressGrace = 30 * time.Second

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// AuthConfig enables bearer-token checks on the sync endpoints when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt-secret"`
	Role      string `yaml:"role"`
}

// StorageConfig selects the local store: "postgres" (settings from POSTGRES_* env) or "memory".
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type ProgressConfig struct {
	Backend string        `yaml:"backend"`
	Grace   time.Duration `yaml:"grace"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ConnectionConfig is one tenant's remote catalog endpoint and its static credentials.
type ConnectionConfig struct {
	ID       string `yaml:"id"`
	BaseURL  string `yaml:"base-url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Validate reports a ConfigurationError for a connection that cannot be used.
func (c ConnectionConfig) Validate() error {
	if c.ID == "" {
		return &models.ConfigurationError{Field: "id", Reason: "empty"}
	}
	u, err := url.Parse(c.BaseURL)
	if c.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return &models.ConfigurationError{ConnectionID: c.ID, Field: "base-url", Reason: "must be an absolute URL"}
	}
	if c.Username == "" || c.Password == "" {
		return &models.ConfigurationError{ConnectionID: c.ID, Field: "credentials", Reason: "username and password are required"}
	}
	return nil
}

type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	Log         LogConfig          `yaml:"log"`
	Auth        AuthConfig         `yaml:"auth"`
	Storage     StorageConfig      `yaml:"storage"`
	Progress    ProgressConfig     `yaml:"progress"`
	Redis       RedisConfig        `yaml:"redis"`
	Sync        values.SyncValues  `yaml:"sync"`
	Connections []ConnectionConfig `yaml:"connections"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &AppConfig{}
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Env == "" {
		c.Log.Env = "production"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "postgres"
	}
	if c.Progress.Backend == "" {
		c.Progress.Backend = "memory"
	}
	if c.Progress.Grace <= 0 {
		c.Progress.Grace = DefaultProgressGrace
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "catalogsync:progress:"
	}
	c.Sync = c.Sync.WithDefaults()
}

func (c *AppConfig) validate() error {
	if c.Storage.Backend != "postgres" && c.Storage.Backend != "memory" {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Progress.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("progress backend redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown progress backend %q", c.Progress.Backend)
	}
	seen := make(map[string]bool, len(c.Connections))
	for _, conn := range c.Connections {
		if seen[conn.ID] {
			return fmt.Errorf("duplicate connection id %q", conn.ID)
		}
		seen[conn.ID] = true
	}
	return nil
}

// Connection returns the connection with the given id.
func (c *AppConfig) Connection(id string) (ConnectionConfig, bool) {
	for _, conn := range c.Connections {
		if conn.ID == id {
			return conn, true
		}
	}
	return ConnectionConfig{}, false
}
