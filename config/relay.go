package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted by RELAY_STORE.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// RelayConfig holds relay server configuration.
type RelayConfig struct {
	Addr      string `env:"RELAY_ADDR" envDefault:":5000"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"RELAY_LOG_LEVEL" envDefault:"info"`

	Store      string `env:"RELAY_STORE" envDefault:"sqlite"`
	SQLitePath string `env:"RELAY_SQLITE_PATH" envDefault:"relay.db"`
	Redis      RedisConfig

	ReadBufferSize  int           `env:"RELAY_READ_BUFFER" envDefault:"1024"`
	WriteBufferSize int           `env:"RELAY_WRITE_BUFFER" envDefault:"1024"`
	SendBuffer      int           `env:"RELAY_SEND_BUFFER" envDefault:"256"`
	WriteTimeout    time.Duration `env:"RELAY_WRITE_TIMEOUT" envDefault:"10s"`
	MaxMessageBytes int64         `env:"RELAY_MAX_MESSAGE_BYTES" envDefault:"4096"`
	// PersistTimeout bounds a single persistence call. Zero disables it.
	PersistTimeout time.Duration `env:"RELAY_PERSIST_TIMEOUT" envDefault:"0"`
}

// RedisConfig holds connection settings for the Redis stream store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_CHAT_PREFIX" envDefault:"relay:chat:"`
	// MaxLen caps each room stream approximately. Zero keeps everything.
	MaxLen int64 `env:"REDIS_CHAT_MAXLEN" envDefault:"0"`
}

// DefaultConfig returns the default relay configuration without reading the environment.
func DefaultConfig() *RelayConfig {
	return &RelayConfig{
		Addr:     ":5000",
		LogLevel: "info",
		Store:    StoreSQLite,

		SQLitePath: "relay.db",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "relay:chat:",
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		MaxMessageBytes: 4096,
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*RelayConfig, error) {
	var cfg RelayConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the relay cannot start without.
func (c *RelayConfig) Validate() error {
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("RELAY_SQLITE_PATH is required for the sqlite store")
		}
	case StoreRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown RELAY_STORE %q", c.Store)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("RELAY_SEND_BUFFER must be positive")
	}
	return nil
}
