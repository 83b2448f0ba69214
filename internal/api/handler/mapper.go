package handler

import (
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// --- Request → Service input ---

func toStartInput(req startSessionRequest) ports.StartSessionInput {
	return ports.StartSessionInput{
		DurationMinutes: req.DurationMinutes,
		CandidateIDs:    req.CandidateIDs,
	}
}

// --- Service output → Response ---

func toStartResponse(r *ports.StartResult) startSessionResponse {
	return startSessionResponse{
		SessionID:       r.SessionID,
		StartTime:       r.StartTime.UTC(),
		Deadline:        r.Deadline.UTC(),
		DurationSeconds: r.DurationSeconds,
		CandidateIDs:    r.CandidateIDs,
		Links: sessionLinks{
			Self: "/v1/sessions/" + r.SessionID,
			Live: "/v1/live",
		},
	}
}

func toStopResponse(r *ports.StopResult) stopSessionResponse {
	anomalies := r.Tally.Anomalies
	if anomalies == nil {
		anomalies = []domain.AnomalousVote{}
	}
	return stopSessionResponse{
		SessionID:     r.SessionID,
		Reason:        string(r.Reason),
		EndTime:       r.EndTime.UTC(),
		NotVotedCount: r.NonVotedCount,
		Candidates:    r.Tally.Candidates,
		Anomalies:     anomalies,
		TotalVotes:    r.Tally.Total,
	}
}

// ToLiveResponse renders a snapshot the way both the REST and websocket
// surfaces expose it.
func ToLiveResponse(s ports.LiveSnapshot) LiveSnapshotResponse {
	anomalies := s.Anomalies
	if anomalies == nil {
		anomalies = []domain.AnomalousVote{}
	}
	return LiveSnapshotResponse{
		SessionID:        s.SessionID,
		Active:           s.Active,
		RemainingSeconds: s.RemainingSeconds,
		Remaining:        s.Remaining,
		Candidates:       toCandidateResults(s.Candidates),
		Anomalies:        anomalies,
		VoteCount:        s.VoteCount,
		NotVotedCount:    s.NotVotedCount,
		NotVoted:         toNamedUsers(s.NotVoted),
		Stale:            s.Stale,
		UpdatedAt:        s.UpdatedAt.UTC(),
	}
}

func toCurrentResponse(st *ports.SessionStatus, live ports.LiveSnapshot) currentSessionResponse {
	resp := currentSessionResponse{
		Active:           st.Active,
		SessionID:        st.SessionID,
		RemainingSeconds: st.RemainingSeconds,
		Remaining:        st.Remaining,
		Live:             ToLiveResponse(live),
	}
	if st.Active {
		start, deadline := st.StartTime.UTC(), st.Deadline.UTC()
		resp.StartTime = &start
		resp.Deadline = &deadline
	}
	return resp
}

func toCatalogEntry(e ports.CatalogEntry) catalogEntryResponse {
	return catalogEntryResponse{
		ID:              e.ID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationSeconds: e.DurationSeconds,
		Duration:        e.Duration,
		Status:          e.Status,
		VoteCount:       e.VoteCount,
		NotVotedCount:   e.NotVotedCount,
		TallyAvailable:  e.TallyAvailable,
		Problem:         e.Problem,
	}
}

func toDetailResponse(d *ports.SessionDetail) sessionDetailResponse {
	anomalies := d.Anomalies
	if anomalies == nil {
		anomalies = []domain.AnomalousVote{}
	}
	return sessionDetailResponse{
		catalogEntryResponse: toCatalogEntry(d.CatalogEntry),
		Candidates:           toCandidateResults(d.Candidates),
		Anomalies:            anomalies,
		NonVoters:            toNamedUsers(d.NonVoters),
		LateVotes:            d.LateVotes,
	}
}

func toCandidateResults(in []ports.CandidateResult) []candidateResult {
	out := make([]candidateResult, 0, len(in))
	for _, c := range in {
		out = append(out, candidateResult{CandidateID: c.CandidateID, Name: c.Name, Letter: c.Letter, Votes: c.Votes})
	}
	return out
}

func toNamedUsers(in []ports.NamedUser) []namedUser {
	out := make([]namedUser, 0, len(in))
	for _, u := range in {
		out = append(out, namedUser{ID: u.ID, Name: u.Name})
	}
	return out
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.DisplayName(), CreatedAt: u.CreatedAt.UTC()}
}
