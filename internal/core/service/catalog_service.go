package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const (
	catalogTimeLayout = "2006-01-02 15:04:05"
	noTallyAvailable  = "no tally available"
)

// CatalogDeps groups the collaborators of CatalogService.
type CatalogDeps struct {
	Sessions ports.SessionRepository
	Ledger   ports.LedgerRepository
	Registry ports.RegistryRepository
	Config   ports.ConfigRepository
	Archive  ports.ArchiveRepository // optional
	Clock    ports.Clock
	Location *time.Location
	Log      zerolog.Logger
}

// CatalogService projects every stored session into a report. A broken record
// degrades its own row, never the listing.
type CatalogService struct {
	sessions ports.SessionRepository
	ledger   ports.LedgerRepository
	registry ports.RegistryRepository
	config   ports.ConfigRepository
	archive  ports.ArchiveRepository
	clock    ports.Clock
	loc      *time.Location
	log      zerolog.Logger
}

var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService returns a CatalogService. Times are rendered in
// deps.Location, UTC when nil.
func NewCatalogService(deps CatalogDeps) *CatalogService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &CatalogService{
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		registry: deps.Registry,
		config:   deps.Config,
		archive:  deps.Archive,
		clock:    clock,
		loc:      loc,
		log:      deps.Log,
	}
}

// List returns every session, newest first. Unreadable records sort last.
func (c *CatalogService) List(ctx context.Context) ([]ports.CatalogEntry, error) {
	records, err := c.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	type row struct {
		entry ports.CatalogEntry
		start time.Time
	}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		if rec.Err != nil {
			c.log.Warn().Err(rec.Err).Str("session_id", rec.ID).Msg("session record unreadable")
			rows = append(rows, row{entry: brokenEntry(rec.ID)})
			continue
		}
		rows = append(rows, row{entry: c.entry(ctx, rec.Session), start: rec.Session.StartTime})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].start.Equal(rows[j].start) {
			return rows[i].start.After(rows[j].start)
		}
		return rows[i].entry.ID < rows[j].entry.ID
	})

	out := make([]ports.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry)
	}
	return out, nil
}

func (c *CatalogService) entry(ctx context.Context, s *domain.Session) ports.CatalogEntry {
	e := ports.CatalogEntry{
		ID:              s.ID,
		StartTime:       s.StartTime.In(c.loc).Format(catalogTimeLayout),
		DurationSeconds: s.DurationSeconds,
		Duration:        domain.FormatClock(s.DurationSeconds),
		Status:          string(s.Status),
		TallyAvailable:  true,
	}
	if s.EndTime != nil {
		end := s.EndTime.In(c.loc).Format(catalogTimeLayout)
		e.EndTime = &end
	}
	if s.NonVotedUserIDs != nil {
		n := len(s.NonVotedUserIDs)
		e.NotVotedCount = &n
	}

	n, err := c.ledger.CountVotes(ctx, s.ID)
	if err != nil {
		c.log.Warn().Err(err).Str("session_id", s.ID).Msg("vote count unavailable")
		e.TallyAvailable = false
		e.Problem = "vote ledger unavailable"
		return e
	}
	e.VoteCount = n
	return e
}

func brokenEntry(id string) ports.CatalogEntry {
	return ports.CatalogEntry{ID: id, Status: "unknown", Problem: noTallyAvailable}
}

// Get returns the full report of one session.
func (c *CatalogService) Get(ctx context.Context, sessionID string) (*ports.SessionDetail, error) {
	sess, err := c.sessions.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptSession) {
			c.log.Warn().Err(err).Str("session_id", sessionID).Msg("session record unreadable")
			return &ports.SessionDetail{CatalogEntry: brokenEntry(sessionID)}, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	d := &ports.SessionDetail{CatalogEntry: c.entry(ctx, sess)}
	if !d.TallyAvailable {
		return d, nil
	}

	ledger, err := c.ledger.Ledger(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	users, err := c.registry.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	index := domain.IndexUsers(users)

	nonVoted := sess.NonVotedUserIDs
	if sess.IsActive() {
		nonVoted = domain.NonVoters(sess, ledger, users)
	} else if sess.EndTime != nil {
		var late domain.Ledger
		ledger, late = ledger.Split(*sess.EndTime)
		d.LateVotes = len(late)
	}

	tally := domain.LiveCounts(sess, ledger)
	d.Candidates = namedCandidates(tally, index)
	d.Anomalies = tally.Anomalies
	d.NonVoters = namedUsers(nonVoted, index)
	return d, nil
}

// Purge permanently deletes a stopped session and its ledger. It is not
// reversible, so the caller must confirm by repeating the id.
func (c *CatalogService) Purge(ctx context.Context, sessionID, confirm string) error {
	if sessionID == "" || confirm != sessionID {
		return domain.ErrPurgeNotConfirmed
	}

	cfg, err := c.config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	if cfg.CurrentSessionID == sessionID {
		return domain.ErrSessionActive
	}

	sess, err := c.sessions.FindSession(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return fmt.Errorf("purge session: %w", err)
	case err != nil && !errors.Is(err, domain.ErrCorruptSession):
		return fmt.Errorf("purge session: %w", err)
	case err == nil && sess.IsActive():
		return domain.ErrSessionActive
	}

	if err := c.ledger.DeleteLedger(ctx, sessionID); err != nil {
		return fmt.Errorf("purge session: votes: %w", err)
	}
	if err := c.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("purge session: record: %w", err)
	}

	if c.archive != nil {
		if err := c.archive.DeleteSession(ctx, sessionID); err != nil {
			c.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete archived result")
		}
		ev := &domain.LifecycleEvent{SessionID: sessionID, Kind: domain.EventPurged, At: c.clock.Now()}
		if err := c.archive.InsertLifecycleEvent(ctx, ev); err != nil {
			c.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to insert lifecycle event")
		}
	}

	c.log.Info().Str("session_id", sessionID).Msg("session purged")
	return nil
}
