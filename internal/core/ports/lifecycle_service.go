package ports

import (
	"context"
	"time"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// StartSessionInput carries the operator's request to open a voting round.
type StartSessionInput struct {
	DurationMinutes int
	CandidateIDs    []string
}

// StartResult is returned once the session is running.
type StartResult struct {
	SessionID       string
	StartTime       time.Time
	Deadline        time.Time
	DurationSeconds int
	CandidateIDs    []string
}

// StopResult describes the single transition performed by Stop.
type StopResult struct {
	SessionID     string
	Reason        domain.StopReason
	EndTime       time.Time
	NonVotedCount int
	Tally         domain.Tally
}

// SessionStatus is the countdown view of the running session, if any.
type SessionStatus struct {
	Active           bool
	SessionID        string
	StartTime        time.Time
	Deadline         time.Time
	RemainingSeconds int
	Remaining        string
}

// LifecycleService drives sessions through active -> stopped.
type LifecycleService interface {
	Start(ctx context.Context, in StartSessionInput) (*StartResult, error)
	// Stop returns domain.ErrNoActiveSession (a warning) when nothing is running.
	Stop(ctx context.Context, reason domain.StopReason) (*StopResult, error)
	Status(ctx context.Context) (*SessionStatus, error)
}
