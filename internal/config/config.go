// Package config loads the brokerdesk configuration from a YAML file, a .env
// file and BROKERDESK_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of configuration environment variables.
// Nested keys are separated by a double underscore: BROKERDESK_STORAGE__TYPE.
const EnvPrefix = "BROKERDESK_"

// DefaultFile is read when no explicit path is given. It may be absent.
const DefaultFile = "brokerdesk.yaml"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// Pipeline sources.
const (
	PipelinesBuiltin = "builtin"
	PipelinesFile    = "file"
	PipelinesLoam    = "loam"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Storage    StorageConfig    `koanf:"storage"`
	Pipelines  PipelinesConfig  `koanf:"pipelines"`
	Actions    ActionsConfig    `koanf:"actions"`
	Encryption EncryptionConfig `koanf:"encryption"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

type ServerConfig struct {
	Port    int    `koanf:"port"`
	MCPPort int    `koanf:"mcp_port"`
	Actor   string `koanf:"actor"` // author recorded when no X-Actor-Name header is sent
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, redis, sqlite, file
	Redis  RedisConfig  `koanf:"redis"`
	SQLite SQLiteConfig `koanf:"sqlite"`
	File   FileConfig   `koanf:"file"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
	// Lock enables the distributed lock for multi-replica deployments.
	Lock bool `koanf:"lock"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type FileConfig struct {
	Path          string `koanf:"path"`
	DirectoryPath string `koanf:"directory_path"` // organizations, users and invites
}

type PipelinesConfig struct {
	Source string `koanf:"source"` // builtin, file, loam
	Path   string `koanf:"path"`
}

type ActionsConfig struct {
	Path    string        `koanf:"path"`
	Timeout time.Duration `koanf:"timeout"`
}

// EncryptionConfig holds base64 encoded AES-256 keys.
// An empty Key disables encryption at rest.
type EncryptionConfig struct {
	Key            string   `koanf:"key"`
	FallbackKeys   []string `koanf:"fallback_keys"`
	AllowPlaintext bool     `koanf:"allow_plaintext"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]any{
	"server.port":                 8080,
	"server.mcp_port":             8081,
	"log.level":                   "info",
	"log.format":                  "text",
	"storage.type":                StorageMemory,
	"storage.redis.addr":          "localhost:6379",
	"storage.sqlite.path":         "brokerdesk.db",
	"storage.file.path":           ".brokerdesk/clients",
	"storage.file.directory_path": ".brokerdesk/directory",
	"pipelines.source":            PipelinesBuiltin,
	"actions.path":                "actions.yaml",
	"actions.timeout":             "30s",
	"telemetry.service_name":      "brokerdesk",
}

// Load reads the configuration. An empty path reads DefaultFile if present;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, v); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and out of range ports.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Type {
	case StorageMemory, StorageRedis, StorageSQLite, StorageFile:
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	switch c.Pipelines.Source {
	case PipelinesBuiltin:
	case PipelinesFile, PipelinesLoam:
		if c.Pipelines.Path == "" {
			errs = append(errs, fmt.Errorf("pipelines.path is required for source %q", c.Pipelines.Source))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown pipelines source %q", c.Pipelines.Source))
	}
	for name, port := range map[string]int{"server.port": c.Server.Port, "server.mcp_port": c.Server.MCPPort} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
