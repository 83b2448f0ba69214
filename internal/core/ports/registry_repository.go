package ports

import (
	"context"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// RegistryRepository persists registered users under users/{id}.
type RegistryRepository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	// FindUser returns domain.ErrUserNotFound when the card is not registered.
	FindUser(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}
