package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects the artifact store implementation.
type StoreBackend string

const (
	// StoreBackendFile persists artifacts to a local JSON file.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis persists artifacts to Redis.
	StoreBackendRedis StoreBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis)", v)
	}
}

// StoreConfig contains artifact store configuration.
type StoreConfig struct {
	// Backend determines where session artifacts are persisted.
	Backend StoreBackend `env:"BACKEND" envDefault:"file"`

	// FilePath is the JSON store location (used when Backend=file).
	FilePath string `env:"FILE_PATH" envDefault:"session-store.json"`

	// Redis connection settings (used when Backend=redis).
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	// RedisPrefix namespaces this station's keys.
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"hvlab:session:"`
}
