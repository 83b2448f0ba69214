package ports

import (
	"context"
	"time"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// LiveSnapshot is the dashboard view of the running (or last) session.
type LiveSnapshot struct {
	SessionID        string
	Active           bool
	RemainingSeconds int
	Remaining        string
	Candidates       []CandidateResult
	Anomalies        []domain.AnomalousVote
	VoteCount        int
	NotVotedCount    int
	NotVoted         []NamedUser
	// Stale is set when the last recompute failed and the previous values are shown.
	Stale     bool
	UpdatedAt time.Time
}

// LivePublisher fans snapshots out to connected dashboards.
type LivePublisher interface {
	Publish(s LiveSnapshot)
}

// LiveView exposes the latest computed snapshot.
type LiveView interface {
	Snapshot() LiveSnapshot
}

// EventHandler is fed serially by the event loop.
type EventHandler interface {
	HandleChange(ctx context.Context, c Change) error
	Tick(ctx context.Context) error
}
