package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// ─── Fake clock ───────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(unix int64) *fakeClock {
	return &fakeClock{now: time.Unix(unix, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ─── In-memory store ──────────────────────────────────────────────────────────

// memStore implements every repository port over plain maps. failures makes
// the named operation fail the given number of times before succeeding.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	sessions map[string]domain.Session
	corrupt  map[string]bool
	votes    map[string]domain.Ledger
	cfg      domain.Config
	modes    map[domain.Mode]bool
	slot     string
	failures map[string]int
	writes   int

	events   []domain.LifecycleEvent
	results  map[string]domain.SessionResult
	reported map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.Session),
		corrupt:  make(map[string]bool),
		votes:    make(map[string]domain.Ledger),
		modes:    make(map[domain.Mode]bool),
		failures: make(map[string]int),
		results:  make(map[string]domain.SessionResult),
		reported: make(map[string]bool),
	}
}

func (m *memStore) fail(op string) error {
	if m.failures[op] > 0 {
		m.failures[op]--
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, op)
	}
	return nil
}

func (m *memStore) failNext(op string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = times
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func cloneSession(s domain.Session) *domain.Session {
	c := s
	c.CandidateIDs = append([]string(nil), s.CandidateIDs...)
	if s.NonVotedUserIDs != nil {
		c.NonVotedUserIDs = append([]string{}, s.NonVotedUserIDs...)
	}
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return &c
}

// seedUsers registers ids one second apart starting at base.
func (m *memStore) seedUsers(base int64, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		m.users[id] = domain.User{ID: id, Name: "user " + id, CreatedAt: time.Unix(base+int64(i), 0)}
	}
}

func (m *memStore) castVote(sessionID, voter, candidate string, unix int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.votes[sessionID] == nil {
		m.votes[sessionID] = make(domain.Ledger)
	}
	m.votes[sessionID][voter] = domain.Vote{VoterID: voter, CandidateID: candidate, Timestamp: time.Unix(unix, 0)}
}

func (m *memStore) putSession(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *cloneSession(*s)
}

func (m *memStore) session(id string) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return cloneSession(s), true
}

func (m *memStore) activeIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, s := range m.sessions {
		if s.IsActive() && !m.corrupt[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (m *memStore) pointer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.CurrentSessionID
}

// RegistryRepository

func (m *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) FindUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindUser"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) SaveUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveUser"); err != nil {
		return err
	}
	m.writes++
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteUser"); err != nil {
		return err
	}
	m.writes++
	delete(m.users, id)
	return nil
}

// SessionRepository

func (m *memStore) FindSession(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindSession"); err != nil {
		return nil, err
	}
	if m.corrupt[id] {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptSession, id)
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *memStore) ListSessions(_ context.Context) ([]ports.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListSessions"); err != nil {
		return nil, err
	}
	var out []ports.SessionRecord
	for id, s := range m.sessions {
		if m.corrupt[id] {
			out = append(out, ports.SessionRecord{ID: id, Err: fmt.Errorf("%w: %s", domain.ErrCorruptSession, id)})
			continue
		}
		out = append(out, ports.SessionRecord{ID: id, Session: cloneSession(s)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SaveSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveSession"); err != nil {
		return err
	}
	m.writes++
	m.sessions[s.ID] = *cloneSession(*s)
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteSession"); err != nil {
		return err
	}
	m.writes++
	delete(m.sessions, id)
	delete(m.corrupt, id)
	return nil
}

// LedgerRepository

func (m *memStore) Ledger(_ context.Context, sessionID string) (domain.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Ledger"); err != nil {
		return nil, err
	}
	out := make(domain.Ledger, len(m.votes[sessionID]))
	for k, v := range m.votes[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) CountVotes(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CountVotes"); err != nil {
		return 0, err
	}
	return len(m.votes[sessionID]), nil
}

func (m *memStore) DeleteLedger(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteLedger"); err != nil {
		return err
	}
	m.writes++
	delete(m.votes, sessionID)
	return nil
}

// ConfigRepository

func (m *memStore) LoadConfig(_ context.Context) (domain.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LoadConfig"); err != nil {
		return domain.Config{}, err
	}
	return m.cfg, nil
}

func (m *memStore) SetCurrentSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetCurrentSession"); err != nil {
		return err
	}
	m.writes++
	m.cfg.CurrentSessionID = id
	return nil
}

func (m *memStore) ClearCurrentSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ClearCurrentSession"); err != nil {
		return err
	}
	m.writes++
	m.cfg.CurrentSessionID = ""
	return nil
}

func (m *memStore) SetVotingActive(_ context.Context, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.cfg.VotingActive = active
	return nil
}

func (m *memStore) SetMode(_ context.Context, mode domain.Mode, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.modes[mode] = on
	return nil
}

func (m *memStore) Mode(_ context.Context, mode domain.Mode) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modes[mode], nil
}

func (m *memStore) ReadScanSlot(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ReadScanSlot"); err != nil {
		return "", err
	}
	return m.slot, nil
}

func (m *memStore) ClearScanSlot(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.slot = ""
	return nil
}

func (m *memStore) scan(cardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot = cardID
}

// ArchiveRepository

func (m *memStore) InsertLifecycleEvent(_ context.Context, ev *domain.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertLifecycleEvent"); err != nil {
		return err
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *memStore) SaveResult(_ context.Context, r *domain.SessionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveResult"); err != nil {
		return err
	}
	m.results[r.SessionID] = *r
	return nil
}

func (m *memStore) archived(id string) (domain.SessionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	return r, ok
}

func (m *memStore) eventKinds(id string) []domain.LifecycleEventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LifecycleEventKind
	for _, ev := range m.events {
		if ev.SessionID == id {
			out = append(out, ev.Kind)
		}
	}
	return out
}

// memArchive exposes only the archive's DeleteSession so it does not collide
// with SessionRepository.DeleteSession on memStore.
type memArchive struct{ *memStore }

func (a memArchive) DeleteSession(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.results, id)
	return nil
}

// AnomalyReporter

func (m *memStore) FirstReport(_ context.Context, sessionID, voterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FirstReport"); err != nil {
		return false, err
	}
	key := sessionID + "/" + voterID
	if m.reported[key] {
		return false, nil
	}
	m.reported[key] = true
	return true, nil
}

// ─── Recording publisher ──────────────────────────────────────────────────────

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []ports.LiveSnapshot
}

func (p *recordingPublisher) Publish(s ports.LiveSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, s)
}

func (p *recordingPublisher) last() (ports.LiveSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snaps) == 0 {
		return ports.LiveSnapshot{}, false
	}
	return p.snaps[len(p.snaps)-1], true
}

// ─── Wiring helpers ───────────────────────────────────────────────────────────

var fastRetry = RetryPolicy{Initial: time.Millisecond, MaxElapsed: 500 * time.Millisecond}

func newTestLifecycle(st *memStore, clock *fakeClock) *LifecycleService {
	n := 0
	return NewLifecycleService(LifecycleDeps{
		Sessions: st,
		Ledger:   st,
		Registry: st,
		Config:   st,
		Archive:  memArchive{st},
		Clock:    clock,
		Log:      zerolog.Nop(),
		NewID: func() string {
			n++
			return fmt.Sprintf("session_%d", n)
		},
	}, fastRetry)
}

func newTestLiveView(st *memStore, clock *fakeClock, pub ports.LivePublisher) *LiveViewService {
	return NewLiveViewService(LiveViewDeps{
		Sessions:  st,
		Ledger:    st,
		Registry:  st,
		Config:    st,
		Anomalies: st,
		Publisher: pub,
		Clock:     clock,
		Log:       zerolog.Nop(),
	})
}

func activeSession(id string, startUnix int64, durationSeconds int, candidates ...string) *domain.Session {
	return &domain.Session{
		ID:              id,
		Status:          domain.StatusActive,
		StartTime:       time.Unix(startUnix, 0),
		DurationSeconds: durationSeconds,
		CandidateIDs:    candidates,
	}
}
