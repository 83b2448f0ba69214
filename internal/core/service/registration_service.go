package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// RegistrationService runs the single-slot card-scan handshake: the scanner
// writes a card id to new_user, the coordinator picks it up, and the operator
// names the new user. Concurrent scans before pickup are last-write-wins.
type RegistrationService struct {
	registry ports.RegistryRepository
	config   ports.ConfigRepository
	sessions ports.SessionRepository
	clock    ports.Clock
	log      zerolog.Logger

	mu       sync.Mutex
	pending  string
	rejected string
}

var _ ports.RegistrationService = (*RegistrationService)(nil)

// NewRegistrationService returns a RegistrationService.
func NewRegistrationService(
	registry ports.RegistryRepository,
	config ports.ConfigRepository,
	sessions ports.SessionRepository,
	clock ports.Clock,
	log zerolog.Logger,
) *RegistrationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &RegistrationService{
		registry: registry,
		config:   config,
		sessions: sessions,
		clock:    clock,
		log:      log,
	}
}

// Open empties the slot and tells scanners to accept registration scans.
func (s *RegistrationService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.config.ClearScanSlot(ctx); err != nil {
		return fmt.Errorf("open registration: %w", err)
	}
	if err := s.config.SetMode(ctx, domain.ModeCreate, true); err != nil {
		return fmt.Errorf("open registration: %w", err)
	}
	s.pending, s.rejected = "", ""
	s.log.Info().Msg("registration mode opened, waiting for card")
	return nil
}

// Cancel closes registration mode and discards any scanned card.
func (s *RegistrationService) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.config.SetMode(ctx, domain.ModeCreate, false); err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	if err := s.config.ClearScanSlot(ctx); err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	s.pending, s.rejected = "", ""
	return nil
}

// State reports whether registration is open and which card is waiting.
func (s *RegistrationService) State(ctx context.Context) (*ports.RegistrationState, error) {
	open, err := s.config.Mode(ctx, domain.ModeCreate)
	if err != nil {
		return nil, fmt.Errorf("registration state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &ports.RegistrationState{Open: open, PendingCardID: s.pending}, nil
}

// LastRejected returns the last scanned card refused as already registered.
func (s *RegistrationService) LastRejected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// HandleScan consumes the new_user slot after a change notification. A card
// that is already registered is refused and the slot cleared.
func (s *RegistrationService) HandleScan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cardID, err := s.config.ReadScanSlot(ctx)
	if err != nil {
		return fmt.Errorf("read scan slot: %w", err)
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil
	}

	_, err = s.registry.FindUser(ctx, cardID)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate_card").Inc()
		s.log.Warn().Str("card_id", cardID).Msg("card is already registered")
		s.rejected = cardID
		if s.pending == cardID {
			s.pending = ""
		}
		if err := s.config.ClearScanSlot(ctx); err != nil {
			return fmt.Errorf("clear scan slot: %w", err)
		}
		return nil
	case errors.Is(err, domain.ErrUserNotFound):
		s.pending = cardID
		s.log.Info().Str("card_id", cardID).Msg("card scanned, waiting for name")
		return nil
	default:
		return fmt.Errorf("handle scan: %w", err)
	}
}

// Complete registers the pending (or given) card under name and closes
// registration mode.
func (s *RegistrationService) Complete(ctx context.Context, in ports.CompleteRegistrationInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		cardID = s.pending
	}
	if cardID == "" {
		slot, err := s.config.ReadScanSlot(ctx)
		if err != nil {
			return nil, fmt.Errorf("complete registration: %w", err)
		}
		cardID = strings.TrimSpace(slot)
	}
	if cardID == "" {
		return nil, domain.ErrNoPendingCard
	}

	if _, err := s.registry.FindUser(ctx, cardID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("complete registration: %w", err)
	}

	user := &domain.User{ID: cardID, Name: name, CreatedAt: s.clock.Now().UTC()}
	if err := s.registry.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("complete registration: %w", err)
	}

	if err := s.config.ClearScanSlot(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear scan slot")
	}
	if err := s.config.SetMode(ctx, domain.ModeCreate, false); err != nil {
		s.log.Warn().Err(err).Msg("failed to close create mode")
	}
	s.pending = ""

	metrics.RegistrationsTotal.WithLabelValues("registered").Inc()
	s.log.Info().Str("card_id", cardID).Str("name", name).Msg("user registered")
	return user, nil
}

// List returns all users in registration order.
func (s *RegistrationService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.registry.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	domain.SortByRegistration(users)
	return users, nil
}

// Remove deletes a user. Candidates of the running session cannot be removed.
func (s *RegistrationService) Remove(ctx context.Context, userID string) error {
	if _, err := s.registry.FindUser(ctx, userID); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}

	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	if cfg.HasActiveSession() {
		sess, err := s.sessions.FindSession(ctx, cfg.CurrentSessionID)
		if err != nil && !isPermanent(err) {
			return fmt.Errorf("remove user: %w", err)
		}
		if err == nil && sess.IsActive() && sess.HasCandidate(userID) {
			return domain.ErrUserIsCandidate
		}
	}

	if err := s.registry.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues("removed").Inc()
	s.log.Info().Str("user_id", userID).Msg("user removed")
	return nil
}
