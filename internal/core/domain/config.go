package domain

// Config is the process-wide singleton pointing at the running session.
// An empty CurrentSessionID means no session is active.
type Config struct {
	CurrentSessionID string `json:"current_session"`
	VotingActive     bool   `json:"voting_active"`
}

// HasActiveSession reports whether the pointer is set.
func (c Config) HasActiveSession() bool {
	return c.CurrentSessionID != ""
}

// Mode is a boundary flag read by external scanners and terminals.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeVote   Mode = "vote"
)
