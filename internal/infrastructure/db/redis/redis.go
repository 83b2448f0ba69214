package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

const (
	defaultTimeout = 5 * time.Second

	// keyspaceEvents enables keyspace notifications for generic, string and
	// hash commands, which is every write the shared store receives.
	keyspaceEvents = "Kg$h"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	DB       int
	Password string
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// EnableKeyspaceEvents turns on the notifications the Subscriber relies on.
// Managed Redis offerings often forbid CONFIG SET; callers treat a failure as
// a warning and expect the server to be configured already.
func EnableKeyspaceEvents(ctx context.Context, client *redis.Client) error {
	if err := client.ConfigSet(ctx, "notify-keyspace-events", keyspaceEvents).Err(); err != nil {
		return fmt.Errorf("enable keyspace events: %w", err)
	}
	return nil
}

// Key converts a slash separated store path to a Redis key.
func Key(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ":")
}

// Path converts a Redis key back to a store path.
func Path(key string) string {
	return strings.ReplaceAll(key, ":", "/")
}

// base carries what every store needs: the client and the per-call timeout.
type base struct {
	client  *redis.Client
	timeout time.Duration
}

func newBase(client *redis.Client, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{client: client, timeout: timeout}
}

func (b base) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// unavailable wraps a transport error so the core can classify it.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
