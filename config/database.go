package config

import (
	"fmt"
	"strings"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"accountd"`
	Password string `env:"PASSWORD" envDefault:"accountd"`
	Name     string `env:"NAME"     envDefault:"accountd"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration, used when the token store
// backend is redis.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// TokenStoreBackend selects where revocable token records live.
type TokenStoreBackend string

const (
	// TokenStorePostgres keeps token records in the relational store.
	TokenStorePostgres TokenStoreBackend = "postgres"
	// TokenStoreRedis keeps token records in Redis with TTL eviction.
	TokenStoreRedis TokenStoreBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenStoreBackend.
func (b *TokenStoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "postgres", "redis":
		*b = TokenStoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenStoreBackend: %q (valid options: postgres, redis)", v)
	}
}

// TokenStoreConfig selects and scopes the token record backend.
type TokenStoreConfig struct {
	Backend TokenStoreBackend `env:"TOKEN_STORE" envDefault:"postgres"`
}
