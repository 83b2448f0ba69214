package ports

import (
	"context"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// SessionRecord is one listed session. Err is set instead of Session when the
// stored record could not be decoded or validated.
type SessionRecord struct {
	ID      string
	Session *domain.Session
	Err     error
}

// SessionRepository persists session records under sessions/{id}.
type SessionRepository interface {
	// FindSession returns domain.ErrSessionNotFound for unknown ids and an error
	// wrapping domain.ErrCorruptSession for undecodable records.
	FindSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]SessionRecord, error)
	// SaveSession fully overwrites the record.
	SaveSession(ctx context.Context, s *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// LedgerRepository reads the vote ledger under votes/{sessionId}. The
// coordinator never writes votes; it only observes and purges them.
type LedgerRepository interface {
	Ledger(ctx context.Context, sessionID string) (domain.Ledger, error)
	CountVotes(ctx context.Context, sessionID string) (int, error)
	DeleteLedger(ctx context.Context, sessionID string) error
}

// ConfigRepository owns the config singleton, the mode flags and the
// new_user handshake slot.
type ConfigRepository interface {
	LoadConfig(ctx context.Context) (domain.Config, error)
	SetCurrentSession(ctx context.Context, sessionID string) error
	ClearCurrentSession(ctx context.Context) error
	SetVotingActive(ctx context.Context, active bool) error
	SetMode(ctx context.Context, mode domain.Mode, on bool) error
	Mode(ctx context.Context, mode domain.Mode) (bool, error)
	// ReadScanSlot returns "" when the slot is empty.
	ReadScanSlot(ctx context.Context) (string, error)
	ClearScanSlot(ctx context.Context) error
}
