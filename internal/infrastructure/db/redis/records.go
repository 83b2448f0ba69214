package redis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// userRecord is the value stored at users/{id}.
type userRecord struct {
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func encodeUser(u *domain.User) ([]byte, error) {
	return json.Marshal(userRecord{Name: u.Name, CreatedAt: u.CreatedAt.Format(time.RFC3339)})
}

func decodeUser(id, raw string) (domain.User, error) {
	var rec userRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	u := domain.User{ID: id, Name: rec.Name}
	if rec.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
			u.CreatedAt = t
		}
	}
	return u, nil
}

// sessionRecord is the value stored at sessions/{id}. The candidates map is
// the historical shape; candidate_order keeps the ballot order.
type sessionRecord struct {
	Status         string          `json:"status"`
	StartTime      int64           `json:"start_time"`
	Duration       int             `json:"duration"`
	Candidates     map[string]bool `json:"candidates"`
	CandidateOrder []string        `json:"candidate_order,omitempty"`
	EndTime        string          `json:"end_time,omitempty"`
	EndTimeUnix    int64           `json:"end_time_unix,omitempty"`
	NotVotedUsers  *[]string       `json:"notVotedUsers,omitempty"`
	StopReason     string          `json:"stop_reason,omitempty"`
}

func encodeSession(s *domain.Session) ([]byte, error) {
	rec := sessionRecord{
		Status:         string(s.Status),
		StartTime:      s.StartTime.Unix(),
		Duration:       s.DurationSeconds,
		Candidates:     make(map[string]bool, len(s.CandidateIDs)),
		CandidateOrder: s.CandidateIDs,
		StopReason:     string(s.StopReason),
	}
	for _, id := range s.CandidateIDs {
		rec.Candidates[id] = true
	}
	if s.EndTime != nil {
		rec.EndTime = s.EndTime.Format(time.RFC3339)
		rec.EndTimeUnix = s.EndTime.Unix()
	}
	if s.NonVotedUserIDs != nil {
		nv := s.NonVotedUserIDs
		rec.NotVotedUsers = &nv
	}
	return json.Marshal(rec)
}

func decodeSession(id, raw string) (*domain.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptSession, id, err)
	}

	s := &domain.Session{
		ID:              id,
		Status:          domain.SessionStatus(rec.Status),
		DurationSeconds: rec.Duration,
		CandidateIDs:    candidateOrder(rec),
		StopReason:      domain.StopReason(rec.StopReason),
	}
	if rec.StartTime > 0 {
		s.StartTime = time.Unix(rec.StartTime, 0)
	}
	switch {
	case rec.EndTimeUnix > 0:
		end := time.Unix(rec.EndTimeUnix, 0)
		s.EndTime = &end
	case rec.EndTime != "":
		if end, err := time.Parse(time.RFC3339, rec.EndTime); err == nil {
			s.EndTime = &end
		}
	}
	if rec.NotVotedUsers != nil {
		s.NonVotedUserIDs = append([]string{}, (*rec.NotVotedUsers)...)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// candidateOrder trusts candidate_order when it names exactly the candidate
// set; otherwise the set is sorted.
func candidateOrder(rec sessionRecord) []string {
	set := make(map[string]struct{}, len(rec.Candidates))
	for id, on := range rec.Candidates {
		if on {
			set[id] = struct{}{}
		}
	}
	if len(rec.CandidateOrder) == len(set) {
		ok := true
		for _, id := range rec.CandidateOrder {
			if _, found := set[id]; !found {
				ok = false
				break
			}
		}
		if ok {
			return append([]string(nil), rec.CandidateOrder...)
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// voteRecord is written by voting terminals at votes/{session}/{voter}.
type voteRecord struct {
	CandidateUID string          `json:"candidate_uid"`
	Timestamp    json.RawMessage `json:"timestamp"`
}

// decodeVote never fails: an entry that cannot be read is still a vote, so it
// is kept with whatever target could be recovered and shows up as anomalous.
func decodeVote(voterID, raw string) domain.Vote {
	v := domain.Vote{VoterID: voterID}
	var rec voteRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		v.CandidateID = strings.Trim(strings.TrimSpace(raw), `"`)
		return v
	}
	v.CandidateID = rec.CandidateUID
	v.Timestamp = parseTimestamp(rec.Timestamp)
	return v
}

// parseTimestamp accepts unix seconds, unix milliseconds or an RFC 3339 string.
func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		raw = []byte(s)
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(int64(n))
	}
	return time.Unix(int64(n), 0)
}
