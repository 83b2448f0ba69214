package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// RegistryStore implements ports.RegistryRepository on the users hash.
type RegistryStore struct {
	base
}

var _ ports.RegistryRepository = (*RegistryStore)(nil)

// NewRegistryStore creates a RegistryStore.
func NewRegistryStore(client *redis.Client, timeout time.Duration) *RegistryStore {
	return &RegistryStore{base: newBase(client, timeout)}
}

func (s *RegistryStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, Key(ports.PathUsers)).Result()
	if err != nil {
		return nil, unavailable("list users", err)
	}
	users := make([]domain.User, 0, len(raw))
	for id, v := range raw {
		u, err := decodeUser(id, v)
		if err != nil {
			// a registered card with an unreadable profile is still a user
			u = domain.User{ID: id}
		}
		users = append(users, u)
	}
	domain.SortByRegistration(users)
	return users, nil
}

func (s *RegistryStore) FindUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGet(ctx, Key(ports.PathUsers), id).Result()
	if isNil(err) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, unavailable("find user", err)
	}
	u, err := decodeUser(id, raw)
	if err != nil {
		u = domain.User{ID: id}
	}
	return &u, nil
}

func (s *RegistryStore) SaveUser(ctx context.Context, u *domain.User) error {
	data, err := encodeUser(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HSet(ctx, Key(ports.PathUsers), u.ID, data).Err(); err != nil {
		return unavailable("save user", err)
	}
	return nil
}

func (s *RegistryStore) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HDel(ctx, Key(ports.PathUsers), id).Err(); err != nil {
		return unavailable("delete user", err)
	}
	return nil
}
