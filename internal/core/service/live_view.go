package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// LiveViewDeps groups the collaborators of LiveViewService.
type LiveViewDeps struct {
	Sessions  ports.SessionRepository
	Ledger    ports.LedgerRepository
	Registry  ports.RegistryRepository
	Config    ports.ConfigRepository
	Anomalies ports.AnomalyReporter // optional
	Publisher ports.LivePublisher   // optional
	Clock     ports.Clock
	Log       zerolog.Logger
}

// LiveViewService holds the dashboard snapshot of the running session. It is
// a cache, not a store: every Refresh recomputes from a full re-read so a
// missed notification can never make the counts drift.
type LiveViewService struct {
	sessions  ports.SessionRepository
	ledger    ports.LedgerRepository
	registry  ports.RegistryRepository
	config    ports.ConfigRepository
	anomalies ports.AnomalyReporter
	publisher ports.LivePublisher
	clock     ports.Clock
	log       zerolog.Logger

	mu       sync.RWMutex
	snap     ports.LiveSnapshot
	deadline time.Time
}

var _ ports.LiveView = (*LiveViewService)(nil)

// NewLiveViewService returns an empty LiveViewService; call Refresh to load it.
func NewLiveViewService(deps LiveViewDeps) *LiveViewService {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &LiveViewService{
		sessions:  deps.Sessions,
		ledger:    deps.Ledger,
		registry:  deps.Registry,
		config:    deps.Config,
		anomalies: deps.Anomalies,
		publisher: deps.Publisher,
		clock:     clock,
		log:       deps.Log,
		snap:      ports.LiveSnapshot{Remaining: domain.FormatClock(0)},
	}
}

// Snapshot returns the latest computed view.
func (v *LiveViewService) Snapshot() ports.LiveSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}

// SessionID is the session the view currently follows.
func (v *LiveViewService) SessionID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap.SessionID
}

// Refresh recomputes the snapshot. The running session is shown while there
// is one; otherwise the last followed session keeps its final results. On
// failure the previous snapshot is kept and flagged stale.
func (v *LiveViewService) Refresh(ctx context.Context) error {
	snap, deadline, err := v.compute(ctx)
	if err != nil {
		metrics.TallyRecomputeErrorsTotal.Inc()
		v.mu.Lock()
		v.snap.Stale = true
		stale := v.snap
		v.mu.Unlock()
		v.publish(stale)
		return fmt.Errorf("refresh live view: %w", err)
	}

	v.mu.Lock()
	v.snap = snap
	v.deadline = deadline
	v.mu.Unlock()

	if snap.Active {
		metrics.LedgerEntries.Set(float64(snap.VoteCount))
	}
	v.publish(snap)
	return nil
}

// Tick refreshes the countdown from the stored deadline without re-reading
// the store.
func (v *LiveViewService) Tick() {
	v.mu.Lock()
	if !v.snap.Active {
		v.mu.Unlock()
		return
	}
	remaining := 0
	if left := v.deadline.Sub(v.clock.Now()); left > 0 {
		remaining = int((left + time.Second - 1) / time.Second)
	}
	v.snap.RemainingSeconds = remaining
	v.snap.Remaining = domain.FormatClock(remaining)
	snap := v.snap
	v.mu.Unlock()

	v.publish(snap)
}

func (v *LiveViewService) compute(ctx context.Context) (ports.LiveSnapshot, time.Time, error) {
	cfg, err := v.config.LoadConfig(ctx)
	if err != nil {
		return ports.LiveSnapshot{}, time.Time{}, err
	}

	sessionID := cfg.CurrentSessionID
	if sessionID == "" {
		sessionID = v.SessionID()
	}
	if sessionID == "" {
		return ports.LiveSnapshot{Remaining: domain.FormatClock(0), UpdatedAt: v.clock.Now()}, time.Time{}, nil
	}

	sess, err := v.sessions.FindSession(ctx, sessionID)
	if err != nil {
		if isPermanent(err) && cfg.CurrentSessionID == "" {
			// the last shown session was purged or broke; nothing to follow
			return ports.LiveSnapshot{Remaining: domain.FormatClock(0), UpdatedAt: v.clock.Now()}, time.Time{}, nil
		}
		return ports.LiveSnapshot{}, time.Time{}, err
	}
	ledger, err := v.ledger.Ledger(ctx, sessionID)
	if err != nil {
		return ports.LiveSnapshot{}, time.Time{}, err
	}
	users, err := v.registry.ListUsers(ctx)
	if err != nil {
		return ports.LiveSnapshot{}, time.Time{}, err
	}
	index := domain.IndexUsers(users)

	now := v.clock.Now()
	snap := ports.LiveSnapshot{
		SessionID: sess.ID,
		Active:    sess.IsActive(),
		UpdatedAt: now,
	}

	var nonVoted []string
	if sess.IsActive() {
		nonVoted = domain.NonVoters(sess, ledger, users)
		snap.RemainingSeconds = sess.Remaining(now)
	} else {
		if sess.EndTime != nil {
			ledger, _ = ledger.Split(*sess.EndTime)
		}
		nonVoted = sess.NonVotedUserIDs
	}
	snap.Remaining = domain.FormatClock(snap.RemainingSeconds)

	tally := domain.LiveCounts(sess, ledger)
	snap.Candidates = namedCandidates(tally, index)
	snap.Anomalies = tally.Anomalies
	snap.VoteCount = tally.Total
	snap.NotVotedCount = len(nonVoted)
	snap.NotVoted = namedUsers(nonVoted, index)

	v.reportAnomalies(ctx, sess.ID, tally.Anomalies)
	return snap, sess.Deadline(), nil
}

// reportAnomalies logs each anomalous vote once per (session, voter).
func (v *LiveViewService) reportAnomalies(ctx context.Context, sessionID string, anomalies []domain.AnomalousVote) {
	for _, a := range anomalies {
		first := true
		if v.anomalies != nil {
			var err error
			first, err = v.anomalies.FirstReport(ctx, sessionID, a.VoterID)
			if err != nil {
				v.log.Debug().Err(err).Str("session_id", sessionID).Msg("anomaly marker unavailable, reporting anyway")
				first = true
			}
		}
		if !first {
			continue
		}
		metrics.AnomalousVotesTotal.Inc()
		v.log.Warn().
			Str("session_id", sessionID).
			Str("voter_id", a.VoterID).
			Str("candidate_id", a.CandidateID).
			Msg("vote for a non-candidate; check terminal eligibility")
	}
}

func (v *LiveViewService) publish(s ports.LiveSnapshot) {
	if v.publisher != nil {
		v.publisher.Publish(s)
	}
}

func namedCandidates(t domain.Tally, index domain.UserIndex) []ports.CandidateResult {
	out := make([]ports.CandidateResult, 0, len(t.Candidates))
	for _, c := range t.Candidates {
		out = append(out, ports.CandidateResult{
			CandidateID: c.CandidateID,
			Name:        index.Name(c.CandidateID),
			Letter:      c.Letter,
			Votes:       c.Votes,
		})
	}
	return out
}

func namedUsers(ids []string, index domain.UserIndex) []ports.NamedUser {
	out := make([]ports.NamedUser, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.NamedUser{ID: id, Name: index.Name(id)})
	}
	return out
}
