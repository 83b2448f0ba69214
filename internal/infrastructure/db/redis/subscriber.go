package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// Subscriber turns keyspace notifications into ports.Change values.
type Subscriber struct {
	client *redis.Client
	db     int
	log    zerolog.Logger
}

var _ ports.ChangeSource = (*Subscriber)(nil)

// NewSubscriber creates a Subscriber for the given logical database.
func NewSubscriber(client *redis.Client, db int, log zerolog.Logger) *Subscriber {
	return &Subscriber{client: client, db: db, log: log}
}

func (s *Subscriber) channelPrefix() string {
	return fmt.Sprintf("__keyspace@%d__:", s.db)
}

// Subscribe listens for writes to any key under prefixes. The returned
// channel is closed when ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, prefixes ...string) (<-chan ports.Change, error) {
	patterns := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		patterns = append(patterns, s.channelPrefix()+Key(p)+"*")
	}

	pubsub := s.client.PSubscribe(ctx, patterns...)
	// wait for the subscription to be confirmed so no change is missed after return
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("keyspace subscribe: %w", err)
	}

	out := make(chan ports.Change, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					s.log.Warn().Msg("keyspace subscription closed")
					return
				}
				key := strings.TrimPrefix(msg.Channel, s.channelPrefix())
				select {
				case out <- ports.Change{Path: Path(key), Op: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.log.Info().Strs("patterns", patterns).Msg("subscribed to keyspace notifications")
	return out, nil
}
