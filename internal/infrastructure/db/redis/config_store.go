package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const (
	fieldCurrentSession = "current_session"
	fieldVotingActive   = "voting_active"
)

// ConfigStore implements ports.ConfigRepository: the config hash, the mode
// flags and the new_user slot.
type ConfigStore struct {
	base
}

var _ ports.ConfigRepository = (*ConfigStore)(nil)

// NewConfigStore creates a ConfigStore.
func NewConfigStore(client *redis.Client, timeout time.Duration) *ConfigStore {
	return &ConfigStore{base: newBase(client, timeout)}
}

func (s *ConfigStore) LoadConfig(ctx context.Context) (domain.Config, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, Key(ports.PathConfig)).Result()
	if err != nil {
		return domain.Config{}, unavailable("load config", err)
	}
	return domain.Config{
		CurrentSessionID: raw[fieldCurrentSession],
		VotingActive:     truthy(raw[fieldVotingActive]),
	}, nil
}

func (s *ConfigStore) SetCurrentSession(ctx context.Context, sessionID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HSet(ctx, Key(ports.PathConfig), fieldCurrentSession, sessionID).Err(); err != nil {
		return unavailable("set current session", err)
	}
	return nil
}

func (s *ConfigStore) ClearCurrentSession(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HDel(ctx, Key(ports.PathConfig), fieldCurrentSession).Err(); err != nil {
		return unavailable("clear current session", err)
	}
	return nil
}

func (s *ConfigStore) SetVotingActive(ctx context.Context, active bool) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HSet(ctx, Key(ports.PathConfig), fieldVotingActive, flag(active)).Err(); err != nil {
		return unavailable("set voting active", err)
	}
	return nil
}

func modeKey(mode domain.Mode) string {
	return Key(ports.PathMode + "/" + string(mode))
}

func (s *ConfigStore) SetMode(ctx context.Context, mode domain.Mode, on bool) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.Set(ctx, modeKey(mode), flag(on), 0).Err(); err != nil {
		return unavailable("set mode", err)
	}
	return nil
}

func (s *ConfigStore) Mode(ctx context.Context, mode domain.Mode) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	v, err := s.client.Get(ctx, modeKey(mode)).Result()
	if isNil(err) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("read mode", err)
	}
	return truthy(v), nil
}

func (s *ConfigStore) ReadScanSlot(ctx context.Context) (string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	v, err := s.client.Get(ctx, Key(ports.PathNewUser)).Result()
	if isNil(err) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("read scan slot", err)
	}
	return v, nil
}

func (s *ConfigStore) ClearScanSlot(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.Del(ctx, Key(ports.PathNewUser)).Err(); err != nil {
		return unavailable("clear scan slot", err)
	}
	return nil
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func truthy(v string) bool {
	return v == "1" || v == "true"
}
