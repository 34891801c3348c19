// Package config loads process configuration from environment variables so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the process reads from its environment.
type Config struct {
	Addr string `env:"TIERBOARD_ADDR" envDefault:":8080"`

	// Empty DATABASE_URL runs the in-memory store; useful for local work.
	DatabaseURL  string `env:"DATABASE_URL"`
	PoolMaxConns int32  `env:"DB_POOL_MAX_CONNS" envDefault:"10"`

	RedisURL string `env:"REDIS_URL"`

	// AuditBackend picks the trail implementation once at startup:
	// "postgres", "monthlog" or "memory".
	AuditBackend   string `env:"AUDIT_BACKEND" envDefault:"postgres"`
	AuditKeyPrefix string `env:"AUDIT_KEY_PREFIX" envDefault:"audit"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	CacheTTL       time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"30s"`

	// AllowedActors, when set, restricts which X-Actor identities the
	// middleware accepts; anything else is recorded as the default actor.
	AllowedActors []string `env:"ALLOWED_ACTORS" envSeparator:","`

	// Per-tier award SLAs; zero means no deadline.
	Tier1SLA time.Duration `env:"TIER1_SLA" envDefault:"720h"`
	Tier2SLA time.Duration `env:"TIER2_SLA" envDefault:"1080h"`
	Tier3SLA time.Duration `env:"TIER3_SLA" envDefault:"1440h"`
	Tier4SLA time.Duration `env:"TIER4_SLA" envDefault:"0"`
	Tier5SLA time.Duration `env:"TIER5_SLA" envDefault:"0"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
