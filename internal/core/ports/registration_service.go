package ports

import (
	"context"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// CompleteRegistrationInput names the card waiting in the handshake slot.
// CardID may be empty to use the last scanned card.
type CompleteRegistrationInput struct {
	Name   string
	CardID string
}

// RegistrationState reports the card-scan handshake.
type RegistrationState struct {
	Open          bool
	PendingCardID string
}

// RegistrationService manages the user registry and the new_user mailbox.
type RegistrationService interface {
	Open(ctx context.Context) error
	Cancel(ctx context.Context) error
	State(ctx context.Context) (*RegistrationState, error)
	// LastRejected is the most recent card refused as a duplicate, if any.
	LastRejected() string
	Complete(ctx context.Context, in CompleteRegistrationInput) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Remove(ctx context.Context, userID string) error
}
