package ports

import (
	"context"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// ArchiveRepository keeps an audit trail of lifecycle transitions and the
// frozen result of each stopped session. Failures here are never fatal to a
// lifecycle operation.
type ArchiveRepository interface {
	InsertLifecycleEvent(ctx context.Context, ev *domain.LifecycleEvent) error
	SaveResult(ctx context.Context, r *domain.SessionResult) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// AnomalyReporter deduplicates operator reports of anomalous votes.
type AnomalyReporter interface {
	// FirstReport returns true the first time a (session, voter) anomaly is seen.
	FirstReport(ctx context.Context, sessionID, voterID string) (bool, error)
}
