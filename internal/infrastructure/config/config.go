package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	// TimeZone is used to render catalog timestamps.
	TimeZone string `env:"TIME_ZONE,  default=UTC"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Voting VotingConfig
	Live   LiveConfig
}

type MongoConfig struct {
	// URI is optional; without it lifecycle events and results are not archived.
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=voting"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type VotingConfig struct {
	TickInterval        time.Duration `env:"TICK_INTERVAL,          default=1s"`
	StoreTimeout        time.Duration `env:"STORE_TIMEOUT,          default=5s"`
	StopRetryInitial    time.Duration `env:"STOP_RETRY_INITIAL,     default=200ms"`
	StopRetryMaxElapsed time.Duration `env:"STOP_RETRY_MAX_ELAPSED, default=2m"`
}

type LiveConfig struct {
	MaxClients int `env:"LIVE_MAX_CLIENTS, default=64"`
	// AllowedOrigins restricts websocket origins; empty accepts any.
	AllowedOrigins []string `env:"LIVE_ALLOWED_ORIGINS"`
}

// Load reads an optional .env file, then the environment, using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config: TIME_ZONE: %w", err)
	}
	return loc, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
