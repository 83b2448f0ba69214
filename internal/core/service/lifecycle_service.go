package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// LifecycleDeps groups the collaborators of LifecycleService.
type LifecycleDeps struct {
	Sessions ports.SessionRepository
	Ledger   ports.LedgerRepository
	Registry ports.RegistryRepository
	Config   ports.ConfigRepository
	Archive  ports.ArchiveRepository // optional
	Clock    ports.Clock
	Log      zerolog.Logger
	// NewID overrides session id generation.
	NewID func() string
}

// LifecycleService is the single authority for session state transitions.
// All transitions are serialized by mu; the countdown is re-derived from the
// stored record on every tick.
type LifecycleService struct {
	sessions ports.SessionRepository
	ledger   ports.LedgerRepository
	registry ports.RegistryRepository
	config   ports.ConfigRepository
	archive  ports.ArchiveRepository
	clock    ports.Clock
	log      zerolog.Logger
	newID    func() string
	retry    RetryPolicy

	mu sync.Mutex
	// armed caches the running session; only its immutable fields are used.
	armed *domain.Session
}

var _ ports.LifecycleService = (*LifecycleService)(nil)

// NewLifecycleService returns a LifecycleService. A zero retry policy falls
// back to DefaultRetryPolicy.
func NewLifecycleService(deps LifecycleDeps, policy RetryPolicy) *LifecycleService {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return "session_" + uuid.NewString() }
	}
	return &LifecycleService{
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		registry: deps.Registry,
		config:   deps.Config,
		archive:  deps.Archive,
		clock:    clock,
		log:      deps.Log,
		newID:    newID,
		retry:    policy.orDefault(),
	}
}

// Start opens a new session. Validation happens before any write.
func (s *LifecycleService) Start(ctx context.Context, in ports.StartSessionInput) (*ports.StartResult, error) {
	if in.DurationMinutes <= 0 {
		return nil, s.reject(domain.ErrInvalidDuration)
	}
	candidates := distinctIDs(in.CandidateIDs)
	if len(candidates) < domain.MinCandidates {
		return nil, s.reject(domain.ErrTooFewCandidates)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range candidates {
		if _, err := s.registry.FindUser(ctx, id); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, s.reject(fmt.Errorf("%w: %s", domain.ErrUnknownCandidate, id))
			}
			return nil, fmt.Errorf("start session: %w", err)
		}
	}

	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if cfg.HasActiveSession() {
		if err := s.reconcileBeforeStart(ctx, cfg.CurrentSessionID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	sess := &domain.Session{
		ID:              s.newID(),
		Status:          domain.StatusActive,
		StartTime:       time.Unix(now.Unix(), 0),
		DurationSeconds: in.DurationMinutes * 60,
		CandidateIDs:    candidates,
	}

	if err := retry(ctx, s.retry, "start", s.log, func() error {
		return s.sessions.SaveSession(ctx, sess)
	}); err != nil {
		return nil, fmt.Errorf("start session: save record: %w", err)
	}

	if err := retry(ctx, s.retry, "start", s.log, func() error {
		return s.config.SetCurrentSession(ctx, sess.ID)
	}); err != nil {
		// The record must not stay active without the pointer.
		if rbErr := retry(ctx, s.retry, "start", s.log, func() error {
			return s.sessions.DeleteSession(ctx, sess.ID)
		}); rbErr != nil {
			metrics.InvariantFailuresTotal.Inc()
			s.log.Error().Err(rbErr).Str("session_id", sess.ID).
				Msg("FATAL: active session left without config pointer; operator action required")
		}
		return nil, fmt.Errorf("start session: set pointer: %w", err)
	}

	// Voting opened signal for scanners and terminals.
	if err := s.config.SetMode(ctx, domain.ModeVote, true); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to open vote mode")
	}
	if err := s.config.SetVotingActive(ctx, true); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to set voting_active")
	}

	s.audit(ctx, &domain.LifecycleEvent{SessionID: sess.ID, Kind: domain.EventStarted, At: sess.StartTime})

	armed := *sess
	s.armed = &armed
	metrics.SessionsStartedTotal.Inc()
	metrics.ActiveSession.Set(1)
	metrics.SessionRemainingSeconds.Set(float64(sess.DurationSeconds))

	s.log.Info().
		Str("session_id", sess.ID).
		Int("duration_seconds", sess.DurationSeconds).
		Strs("candidates", candidates).
		Msg("voting session started")

	return &ports.StartResult{
		SessionID:       sess.ID,
		StartTime:       sess.StartTime,
		Deadline:        sess.Deadline(),
		DurationSeconds: sess.DurationSeconds,
		CandidateIDs:    candidates,
	}, nil
}

// reconcileBeforeStart rejects a start while a live session runs, and closes
// a pointer that refers to an expired, stopped or unusable session.
func (s *LifecycleService) reconcileBeforeStart(ctx context.Context, currentID string) error {
	cur, err := s.sessions.FindSession(ctx, currentID)
	switch {
	case err == nil && cur.IsActive() && !cur.Expired(s.clock.Now()):
		return s.reject(domain.ErrSessionRunning)
	case err != nil && !isPermanent(err):
		return fmt.Errorf("start session: %w", err)
	}

	reason := domain.StopExpired
	if err != nil || !cur.IsActive() {
		reason = domain.StopRecovered
	}
	if _, err := s.closeSession(ctx, currentID, reason); err != nil && !isPermanent(err) {
		return fmt.Errorf("start session: close previous: %w", err)
	}
	return nil
}

// Stop closes the running session. With nothing running it is a no-op that
// returns domain.ErrNoActiveSession.
func (s *LifecycleService) Stop(ctx context.Context, reason domain.StopReason) (*ports.StopResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("stop session: %w", err)
	}
	if !cfg.HasActiveSession() {
		s.armed = nil
		return nil, s.reject(domain.ErrNoActiveSession)
	}
	return s.closeSession(ctx, cfg.CurrentSessionID, reason)
}

// closeSession runs the stop sequence for id as one retried unit:
// freeze non-voters, mark stopped, clear the pointer. Each attempt re-reads the
// record so a partially applied earlier attempt is completed, never redone.
// Callers hold mu.
func (s *LifecycleService) closeSession(ctx context.Context, id string, reason domain.StopReason) (*ports.StopResult, error) {
	var (
		closed  *domain.Session
		ledger  domain.Ledger
		changed bool
	)

	err := retry(ctx, s.retry, "stop", s.log, func() error {
		sess, err := s.sessions.FindSession(ctx, id)
		if err != nil {
			if isPermanent(err) {
				if cerr := s.clearPointerIf(ctx, id); cerr != nil {
					return cerr
				}
			}
			return err
		}

		ledger, err = s.ledger.Ledger(ctx, id)
		if err != nil {
			return err
		}

		if sess.IsActive() {
			users, err := s.registry.ListUsers(ctx)
			if err != nil {
				return err
			}
			if err := sess.Close(time.Unix(s.clock.Now().Unix(), 0), reason, domain.NonVoters(sess, ledger, users)); err != nil {
				return err
			}
			if err := s.sessions.SaveSession(ctx, sess); err != nil {
				return err
			}
			changed = true
		}

		if err := s.clearPointerIf(ctx, id); err != nil {
			return err
		}
		closed = sess
		return nil
	})

	s.armed = nil
	if err != nil {
		if isPermanent(err) {
			metrics.ActiveSession.Set(0)
			s.log.Error().Err(err).Str("session_id", id).Msg("session record unusable; pointer cleared without tally")
			return nil, fmt.Errorf("stop session %s: %w", id, err)
		}
		metrics.InvariantFailuresTotal.Inc()
		s.log.Error().Err(err).Str("session_id", id).
			Msg("FATAL: stop sequence abandoned; config pointer and session status may disagree")
		return nil, fmt.Errorf("stop session %s: %w", id, err)
	}

	metrics.ActiveSession.Set(0)
	metrics.SessionRemainingSeconds.Set(0)

	if err := s.config.SetMode(ctx, domain.ModeVote, false); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("failed to close vote mode")
	}
	if err := s.config.SetVotingActive(ctx, false); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("failed to clear voting_active")
	}

	end := s.clock.Now()
	if closed.EndTime != nil {
		end = *closed.EndTime
	}
	onTime, late := ledger.Split(end)
	tally := domain.LiveCounts(closed, onTime)

	if changed {
		metrics.SessionsStoppedTotal.WithLabelValues(string(reason)).Inc()
		s.audit(ctx, &domain.LifecycleEvent{SessionID: id, Kind: domain.EventStopped, Reason: reason, At: end})
		s.saveResult(ctx, &domain.SessionResult{
			SessionID:       id,
			StartTime:       closed.StartTime,
			EndTime:         end,
			DurationSeconds: closed.DurationSeconds,
			StopReason:      closed.StopReason,
			Tally:           tally,
			NonVotedUserIDs: closed.NonVotedUserIDs,
			LateVotes:       len(late),
		})
		s.log.Info().
			Str("session_id", id).
			Str("reason", string(reason)).
			Int("votes", tally.Total).
			Int("not_voted", len(closed.NonVotedUserIDs)).
			Msg("voting session stopped")
	}

	return &ports.StopResult{
		SessionID:     id,
		Reason:        closed.StopReason,
		EndTime:       end,
		NonVotedCount: len(closed.NonVotedUserIDs),
		Tally:         tally,
	}, nil
}

// clearPointerIf clears config.current_session only when it still names id.
func (s *LifecycleService) clearPointerIf(ctx context.Context, id string) error {
	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.CurrentSessionID != id {
		return nil
	}
	return s.config.ClearCurrentSession(ctx)
}

// Tick advances the advisory countdown and closes the session once the stored
// deadline has passed. Missed ticks are irrelevant: expiry is computed from
// startTime + duration and the clock only.
func (s *LifecycleService) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.current(ctx)
	if err != nil || sess == nil {
		return err
	}

	now := s.clock.Now()
	metrics.SessionRemainingSeconds.Set(float64(sess.Remaining(now)))
	if !sess.Expired(now) {
		return nil
	}

	s.log.Info().Str("session_id", sess.ID).Msg("session time is up, closing")
	_, err = s.closeSession(ctx, sess.ID, domain.StopExpired)
	return err
}

// current returns the running session, loading it when the pointer moved.
// A pointer to a stopped, missing or corrupt record is repaired on the spot.
func (s *LifecycleService) current(ctx context.Context) (*domain.Session, error) {
	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasActiveSession() {
		if s.armed != nil {
			s.log.Info().Str("session_id", s.armed.ID).Msg("config pointer cleared externally, disarming")
		}
		s.armed = nil
		metrics.ActiveSession.Set(0)
		metrics.SessionRemainingSeconds.Set(0)
		return nil, nil
	}
	if s.armed != nil && s.armed.ID == cfg.CurrentSessionID {
		return s.armed, nil
	}

	sess, err := s.sessions.FindSession(ctx, cfg.CurrentSessionID)
	if err != nil && !isPermanent(err) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err != nil || !sess.IsActive() {
		s.log.Warn().Err(err).Str("session_id", cfg.CurrentSessionID).Msg("config points at a closed or unusable session, repairing")
		_, cerr := s.closeSession(ctx, cfg.CurrentSessionID, domain.StopRecovered)
		if cerr != nil && !isPermanent(cerr) {
			return nil, cerr
		}
		return nil, nil
	}

	armed := *sess
	s.armed = &armed
	metrics.ActiveSession.Set(1)
	return s.armed, nil
}

// Resume restores the single-active invariant after a process restart: the
// pointed-at session is re-armed (or closed when expired) and any other
// record still marked active is closed with reason recovered.
func (s *LifecycleService) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.armed = nil
	sess, err := s.current(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	records, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("resume: list sessions: %w", err)
	}
	for _, rec := range records {
		if rec.Err != nil || !rec.Session.IsActive() {
			continue
		}
		if sess != nil && rec.ID == sess.ID {
			continue
		}
		s.log.Warn().Str("session_id", rec.ID).Msg("active session without config pointer, closing")
		if _, err := s.closeSession(ctx, rec.ID, domain.StopRecovered); err != nil && !isPermanent(err) {
			return fmt.Errorf("resume: %w", err)
		}
	}

	if sess == nil {
		s.log.Info().Msg("no active session to resume")
		return nil
	}

	now := s.clock.Now()
	if sess.Expired(now) {
		s.log.Info().Str("session_id", sess.ID).Msg("session expired while coordinator was down, closing")
		if _, err := s.closeSession(ctx, sess.ID, domain.StopExpired); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		return nil
	}
	s.armed = sess
	s.log.Info().Str("session_id", sess.ID).Int("remaining_seconds", sess.Remaining(now)).Msg("resumed active session")
	return nil
}

// Status reports the countdown of the running session.
func (s *LifecycleService) Status(ctx context.Context) (*ports.SessionStatus, error) {
	cfg, err := s.config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("session status: %w", err)
	}
	if !cfg.HasActiveSession() {
		return &ports.SessionStatus{Remaining: domain.FormatClock(0)}, nil
	}
	sess, err := s.sessions.FindSession(ctx, cfg.CurrentSessionID)
	if err != nil {
		return nil, fmt.Errorf("session status: %w", err)
	}
	remaining := sess.Remaining(s.clock.Now())
	return &ports.SessionStatus{
		Active:           sess.IsActive(),
		SessionID:        sess.ID,
		StartTime:        sess.StartTime,
		Deadline:         sess.Deadline(),
		RemainingSeconds: remaining,
		Remaining:        domain.FormatClock(remaining),
	}, nil
}

// reject logs a validation or conflict outcome and returns err unchanged.
func (s *LifecycleService) reject(err error) error {
	kind := "validation"
	if domain.IsWarning(err) {
		kind = "conflict"
	}
	metrics.LifecycleWarningsTotal.WithLabelValues(kind).Inc()
	s.log.Warn().Err(err).Str("kind", kind).Msg("lifecycle request rejected")
	return err
}

func (s *LifecycleService) audit(ctx context.Context, ev *domain.LifecycleEvent) {
	if s.archive == nil {
		return
	}
	if err := s.archive.InsertLifecycleEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("session_id", ev.SessionID).Str("kind", string(ev.Kind)).Msg("failed to insert lifecycle event")
	}
}

func (s *LifecycleService) saveResult(ctx context.Context, r *domain.SessionResult) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveResult(ctx, r); err != nil {
		s.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("failed to archive session result")
	}
}

// distinctIDs trims, drops empties and deduplicates, keeping first-seen order.
func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
