package domain

import "sort"

// CandidateCount is one row of a tally, in ballot order.
type CandidateCount struct {
	CandidateID string `json:"candidate_id"`
	Letter      string `json:"letter"`
	Votes       int    `json:"votes"`
}

// AnomalousVote is a ledger entry whose target is not a candidate of the
// session. It is counted and shown, never dropped.
type AnomalousVote struct {
	VoterID     string `json:"voter_id"`
	CandidateID string `json:"candidate_id"`
}

// Tally is the derived per-candidate count for one session.
type Tally struct {
	Candidates []CandidateCount `json:"candidates"`
	// Counts holds every target seen, candidates and anomalous ids alike.
	Counts    map[string]int  `json:"counts"`
	Anomalies []AnomalousVote `json:"anomalies,omitempty"`
	Total     int             `json:"total"`
}

// CandidateVotes sums the votes that landed on real candidates.
func (t Tally) CandidateVotes() int {
	n := 0
	for _, c := range t.Candidates {
		n += c.Votes
	}
	return n
}

// LiveCounts derives the tally of ledger against the session's candidate set.
// Candidates with no votes are present with zero.
func LiveCounts(s *Session, ledger Ledger) Tally {
	candidates := s.CandidateSet()
	t := Tally{
		Candidates: make([]CandidateCount, 0, len(s.CandidateIDs)),
		Counts:     make(map[string]int, len(s.CandidateIDs)),
	}
	for _, id := range s.CandidateIDs {
		t.Counts[id] = 0
	}

	for voter, v := range ledger {
		t.Counts[v.CandidateID]++
		t.Total++
		if _, ok := candidates[v.CandidateID]; !ok {
			t.Anomalies = append(t.Anomalies, AnomalousVote{VoterID: voter, CandidateID: v.CandidateID})
		}
	}
	sort.Slice(t.Anomalies, func(i, j int) bool { return t.Anomalies[i].VoterID < t.Anomalies[j].VoterID })

	for i, id := range s.CandidateIDs {
		t.Candidates = append(t.Candidates, CandidateCount{
			CandidateID: id,
			Letter:      BallotLetter(i),
			Votes:       t.Counts[id],
		})
	}
	return t
}

// NonVoters returns every user that is neither a candidate nor present in the
// ledger, in registration order.
func NonVoters(s *Session, ledger Ledger, users []User) []string {
	ordered := make([]User, len(users))
	copy(ordered, users)
	SortByRegistration(ordered)

	candidates := s.CandidateSet()
	out := make([]string, 0, len(ordered))
	for _, u := range ordered {
		if _, ok := candidates[u.ID]; ok {
			continue
		}
		if _, ok := ledger[u.ID]; ok {
			continue
		}
		out = append(out, u.ID)
	}
	return out
}
