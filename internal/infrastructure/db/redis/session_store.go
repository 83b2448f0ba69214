package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// SessionStore implements ports.SessionRepository on the sessions hash.
type SessionStore struct {
	base
}

var _ ports.SessionRepository = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore.
func NewSessionStore(client *redis.Client, timeout time.Duration) *SessionStore {
	return &SessionStore{base: newBase(client, timeout)}
}

func (s *SessionStore) FindSession(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGet(ctx, Key(ports.PathSessions), id).Result()
	if isNil(err) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, unavailable("find session", err)
	}
	return decodeSession(id, raw)
}

// ListSessions returns every record ordered by id. Undecodable records are
// returned with Err set.
func (s *SessionStore) ListSessions(ctx context.Context) ([]ports.SessionRecord, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, Key(ports.PathSessions)).Result()
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	out := make([]ports.SessionRecord, 0, len(raw))
	for id, v := range raw {
		sess, err := decodeSession(id, v)
		out = append(out, ports.SessionRecord{ID: id, Session: sess, Err: err})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SessionStore) SaveSession(ctx context.Context, sess *domain.Session) error {
	data, err := encodeSession(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HSet(ctx, Key(ports.PathSessions), sess.ID, data).Err(); err != nil {
		return unavailable("save session", err)
	}
	return nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.HDel(ctx, Key(ports.PathSessions), id).Err(); err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

// LedgerStore implements ports.LedgerRepository on votes:{session} hashes.
type LedgerStore struct {
	base
}

var _ ports.LedgerRepository = (*LedgerStore)(nil)

// NewLedgerStore creates a LedgerStore.
func NewLedgerStore(client *redis.Client, timeout time.Duration) *LedgerStore {
	return &LedgerStore{base: newBase(client, timeout)}
}

func ledgerKey(sessionID string) string {
	return Key(ports.PathVotes + "/" + sessionID)
}

func (s *LedgerStore) Ledger(ctx context.Context, sessionID string) (domain.Ledger, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, ledgerKey(sessionID)).Result()
	if err != nil {
		return nil, unavailable("read ledger", err)
	}
	ledger := make(domain.Ledger, len(raw))
	for voter, v := range raw {
		ledger[voter] = decodeVote(voter, v)
	}
	return ledger, nil
}

func (s *LedgerStore) CountVotes(ctx context.Context, sessionID string) (int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	n, err := s.client.HLen(ctx, ledgerKey(sessionID)).Result()
	if err != nil {
		return 0, unavailable("count votes", err)
	}
	return int(n), nil
}

func (s *LedgerStore) DeleteLedger(ctx context.Context, sessionID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.client.Del(ctx, ledgerKey(sessionID)).Err(); err != nil {
		return unavailable("delete ledger", err)
	}
	return nil
}
