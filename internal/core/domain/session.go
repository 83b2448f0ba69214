package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus represents the lifecycle state of a voting session.
type SessionStatus string

const (
	StatusActive  SessionStatus = "active"
	StatusStopped SessionStatus = "stopped"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusActive: {StatusStopped},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StopReason records why a session was closed.
type StopReason string

const (
	StopManual  StopReason = "manual"
	StopExpired StopReason = "expired"
	// StopRecovered closes an active record that had lost its config pointer.
	StopRecovered StopReason = "recovered"
)

// MinCandidates is the smallest candidate set a session may be opened with.
const MinCandidates = 2

// Session is one bounded voting round.
type Session struct {
	ID              string
	Status          SessionStatus
	StartTime       time.Time
	DurationSeconds int
	// CandidateIDs is ordered; the index is the ballot position.
	CandidateIDs []string
	EndTime      *time.Time
	// NonVotedUserIDs is nil until the session is stopped.
	NonVotedUserIDs []string
	StopReason      StopReason
}

// Validate reports records that cannot be tallied.
func (s *Session) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: missing id", ErrCorruptSession)
	case s.Status != StatusActive && s.Status != StatusStopped:
		return fmt.Errorf("%w: %s: unknown status %q", ErrCorruptSession, s.ID, s.Status)
	case len(s.CandidateIDs) < MinCandidates:
		return fmt.Errorf("%w: %s: candidate set has %d entries", ErrCorruptSession, s.ID, len(s.CandidateIDs))
	case s.DurationSeconds <= 0:
		return fmt.Errorf("%w: %s: non-positive duration", ErrCorruptSession, s.ID)
	case s.StartTime.IsZero():
		return fmt.Errorf("%w: %s: missing start time", ErrCorruptSession, s.ID)
	}
	return nil
}

// IsActive reports whether the session is still accepting votes.
func (s *Session) IsActive() bool {
	return s.Status == StatusActive
}

// Deadline is the authoritative expiry instant.
func (s *Session) Deadline() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// Remaining returns the whole seconds left at now, never negative. It depends
// only on stored fields and the clock.
func (s *Session) Remaining(now time.Time) int {
	left := s.Deadline().Sub(now)
	if left <= 0 {
		return 0
	}
	// round up so a session with 0.4s left still shows 1
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}

// Expired reports whether the deadline has been reached at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Deadline())
}

// HasCandidate reports whether id is in the candidate set.
func (s *Session) HasCandidate(id string) bool {
	for _, c := range s.CandidateIDs {
		if c == id {
			return true
		}
	}
	return false
}

// CandidateSet returns the candidate ids as a set.
func (s *Session) CandidateSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.CandidateIDs))
	for _, id := range s.CandidateIDs {
		set[id] = struct{}{}
	}
	return set
}

// Close moves an active session to stopped and freezes the non-voter snapshot.
// The snapshot is written once; closing an already stopped session is an error.
func (s *Session) Close(at time.Time, reason StopReason, nonVoted []string) error {
	if !s.Status.CanTransitionTo(StatusStopped) {
		return fmt.Errorf("close session %s: invalid transition from %s", s.ID, s.Status)
	}
	end := at
	s.Status = StatusStopped
	s.EndTime = &end
	s.StopReason = reason
	if nonVoted == nil {
		nonVoted = []string{}
	}
	s.NonVotedUserIDs = nonVoted
	return nil
}

// BallotLetter returns the letter shown on voting terminals for the candidate
// at index i: A, B, … Z, then AA, AB, …
func BallotLetter(i int) string {
	if i < 0 {
		return ""
	}
	var b strings.Builder
	for {
		b.WriteByte(byte('A' + i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	r := []byte(b.String())
	for l, h := 0, len(r)-1; l < h; l, h = l+1, h-1 {
		r[l], r[h] = r[h], r[l]
	}
	return string(r)
}

// FormatClock renders seconds as hh:mm:ss, dropping the hour part when it is zero.
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
