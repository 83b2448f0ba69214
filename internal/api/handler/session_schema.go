package handler

import (
	"time"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

type startSessionRequest struct {
	DurationMinutes int      `json:"duration_minutes" validate:"required,gt=0"`
	CandidateIDs    []string `json:"candidate_ids"    validate:"min=2,unique,dive,required"`
}

type sessionLinks struct {
	Self string `json:"self"`
	Live string `json:"live"`
}

type startSessionResponse struct {
	SessionID       string       `json:"session_id"`
	StartTime       time.Time    `json:"start_time"`
	Deadline        time.Time    `json:"deadline"`
	DurationSeconds int          `json:"duration_seconds"`
	CandidateIDs    []string     `json:"candidate_ids"`
	Links           sessionLinks `json:"_links"`
}

type stopSessionResponse struct {
	SessionID     string                  `json:"session_id"`
	Reason        string                  `json:"reason"`
	EndTime       time.Time               `json:"end_time"`
	NotVotedCount int                     `json:"not_voted_count"`
	Candidates    []domain.CandidateCount `json:"candidates"`
	Anomalies     []domain.AnomalousVote  `json:"anomalies"`
	TotalVotes    int                     `json:"total_votes"`
}

type candidateResult struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Letter      string `json:"letter"`
	Votes       int    `json:"votes"`
}

type namedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LiveSnapshotResponse is shared by GET /v1/sessions/current and the
// websocket stream.
type LiveSnapshotResponse struct {
	SessionID        string                 `json:"session_id,omitempty"`
	Active           bool                   `json:"active"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	Remaining        string                 `json:"remaining"`
	Candidates       []candidateResult      `json:"candidates"`
	Anomalies        []domain.AnomalousVote `json:"anomalies"`
	VoteCount        int                    `json:"vote_count"`
	NotVotedCount    int                    `json:"not_voted_count"`
	NotVoted         []namedUser            `json:"not_voted"`
	Stale            bool                   `json:"stale"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type currentSessionResponse struct {
	Active           bool                 `json:"active"`
	SessionID        string               `json:"session_id,omitempty"`
	StartTime        *time.Time           `json:"start_time,omitempty"`
	Deadline         *time.Time           `json:"deadline,omitempty"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	Remaining        string               `json:"remaining"`
	Live             LiveSnapshotResponse `json:"live"`
}

type catalogEntryResponse struct {
	ID              string  `json:"id"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	DurationSeconds int     `json:"duration_seconds"`
	Duration        string  `json:"duration"`
	Status          string  `json:"status"`
	VoteCount       int     `json:"vote_count"`
	NotVotedCount   *int    `json:"not_voted_count"`
	TallyAvailable  bool    `json:"tally_available"`
	Problem         string  `json:"problem,omitempty"`
}

type catalogListResponse struct {
	Sessions []catalogEntryResponse `json:"sessions"`
	Count    int                    `json:"count"`
}

type sessionDetailResponse struct {
	catalogEntryResponse
	Candidates []candidateResult      `json:"candidates"`
	Anomalies  []domain.AnomalousVote `json:"anomalies"`
	NonVoters  []namedUser            `json:"non_voters"`
	LateVotes  int                    `json:"late_votes"`
}

type messageResponse struct {
	Message string `json:"message"`
}
