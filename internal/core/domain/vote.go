package domain

import "time"

// Vote is a single ledger entry, keyed by VoterID within a session.
type Vote struct {
	VoterID     string    `json:"voter_id"`
	CandidateID string    `json:"candidate_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ledger is the vote ledger of one session: voter id -> vote.
type Ledger map[string]Vote

// VoterIDs returns the set of voters present in the ledger.
func (l Ledger) VoterIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(l))
	for id := range l {
		ids[id] = struct{}{}
	}
	return ids
}

// Split separates entries cast up to and including cutoff from later ones.
// A zero cutoff keeps everything.
func (l Ledger) Split(cutoff time.Time) (onTime Ledger, late Ledger) {
	onTime = make(Ledger, len(l))
	late = make(Ledger)
	for id, v := range l {
		if !cutoff.IsZero() && !v.Timestamp.IsZero() && v.Timestamp.After(cutoff) {
			late[id] = v
			continue
		}
		onTime[id] = v
	}
	return onTime, late
}
