package domain

import "time"

// LifecycleEventKind names an audited lifecycle transition.
type LifecycleEventKind string

const (
	EventStarted LifecycleEventKind = "started"
	EventStopped LifecycleEventKind = "stopped"
	EventPurged  LifecycleEventKind = "purged"
)

// LifecycleEvent is an audit entry for a session transition.
type LifecycleEvent struct {
	SessionID string
	Kind      LifecycleEventKind
	Reason    StopReason // stopped only
	At        time.Time
}

// SessionResult is the frozen outcome of a stopped session.
type SessionResult struct {
	SessionID       string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	StopReason      StopReason
	Tally           Tally
	NonVotedUserIDs []string
	LateVotes       int
}
