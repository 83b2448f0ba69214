package ports

import (
	"context"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// CatalogEntry is the reporting row of one session.
type CatalogEntry struct {
	ID              string
	StartTime       string
	EndTime         *string
	DurationSeconds int
	Duration        string
	Status          string
	VoteCount       int
	NotVotedCount   *int
	TallyAvailable  bool
	// Problem explains why TallyAvailable is false.
	Problem string
}

// NamedUser pairs a user id with its display name.
type NamedUser struct {
	ID   string
	Name string
}

// CandidateResult is a tally row enriched with the candidate's name.
type CandidateResult struct {
	CandidateID string
	Name        string
	Letter      string
	Votes       int
}

// SessionDetail is the full report of one session.
type SessionDetail struct {
	CatalogEntry
	Candidates []CandidateResult
	Anomalies  []domain.AnomalousVote
	NonVoters  []NamedUser
	// LateVotes counts ledger entries cast after the session ended; they are
	// ignored by the tally.
	LateVotes int
}

// CatalogService is the read-only history of all sessions plus purge.
type CatalogService interface {
	List(ctx context.Context) ([]CatalogEntry, error)
	Get(ctx context.Context, sessionID string) (*SessionDetail, error)
	// Purge deletes the session and its ledger. confirm must repeat the id.
	Purge(ctx context.Context, sessionID, confirm string) error
}
