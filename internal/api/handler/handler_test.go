package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// ─── Stubs ────────────────────────────────────────────────────────────────────

type stubLifecycle struct {
	startFn  func(ctx context.Context, in ports.StartSessionInput) (*ports.StartResult, error)
	stopFn   func(ctx context.Context, reason domain.StopReason) (*ports.StopResult, error)
	statusFn func(ctx context.Context) (*ports.SessionStatus, error)
}

func (s *stubLifecycle) Start(ctx context.Context, in ports.StartSessionInput) (*ports.StartResult, error) {
	return s.startFn(ctx, in)
}

func (s *stubLifecycle) Stop(ctx context.Context, reason domain.StopReason) (*ports.StopResult, error) {
	return s.stopFn(ctx, reason)
}

func (s *stubLifecycle) Status(ctx context.Context) (*ports.SessionStatus, error) {
	return s.statusFn(ctx)
}

type stubLive struct{ snap ports.LiveSnapshot }

func (s stubLive) Snapshot() ports.LiveSnapshot { return s.snap }

type stubCatalog struct {
	listFn  func(ctx context.Context) ([]ports.CatalogEntry, error)
	getFn   func(ctx context.Context, id string) (*ports.SessionDetail, error)
	purgeFn func(ctx context.Context, id, confirm string) error
}

func (s *stubCatalog) List(ctx context.Context) ([]ports.CatalogEntry, error) { return s.listFn(ctx) }

func (s *stubCatalog) Get(ctx context.Context, id string) (*ports.SessionDetail, error) {
	return s.getFn(ctx, id)
}

func (s *stubCatalog) Purge(ctx context.Context, id, confirm string) error {
	return s.purgeFn(ctx, id, confirm)
}

type stubRegistration struct {
	state      ports.RegistrationState
	rejected   string
	opened     bool
	cancelled  bool
	completeFn func(ctx context.Context, in ports.CompleteRegistrationInput) (*domain.User, error)
	users      []domain.User
	removeFn   func(ctx context.Context, id string) error
}

func (s *stubRegistration) Open(context.Context) error {
	s.opened = true
	s.state.Open = true
	return nil
}

func (s *stubRegistration) Cancel(context.Context) error {
	s.cancelled = true
	s.state = ports.RegistrationState{}
	return nil
}

func (s *stubRegistration) State(context.Context) (*ports.RegistrationState, error) {
	st := s.state
	return &st, nil
}

func (s *stubRegistration) LastRejected() string { return s.rejected }

func (s *stubRegistration) Complete(ctx context.Context, in ports.CompleteRegistrationInput) (*domain.User, error) {
	return s.completeFn(ctx, in)
}

func (s *stubRegistration) List(context.Context) ([]domain.User, error) { return s.users, nil }

func (s *stubRegistration) Remove(ctx context.Context, id string) error { return s.removeFn(ctx, id) }

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

func TestSessionHandler_Start_Success(t *testing.T) {
	e := newEcho()
	start := time.Unix(1000, 0)
	stub := &stubLifecycle{
		startFn: func(_ context.Context, in ports.StartSessionInput) (*ports.StartResult, error) {
			if in.DurationMinutes != 1 || len(in.CandidateIDs) != 2 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.StartResult{
				SessionID:       "session_1000000",
				StartTime:       start,
				Deadline:        start.Add(time.Minute),
				DurationSeconds: 60,
				CandidateIDs:    in.CandidateIDs,
			}, nil
		},
	}
	h := NewSessionHandler(stub, stubLive{}, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodPost, "/v1/sessions", `{"duration_minutes":1,"candidate_ids":["A","B"]}`)
	if err := h.Start(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["session_id"] != "session_1000000" || resp["duration_seconds"] != float64(60) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	links, _ := resp["_links"].(map[string]any)
	if links["self"] != "/v1/sessions/session_1000000" {
		t.Fatalf("unexpected links: %+v", links)
	}
}

func TestSessionHandler_Start_RejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"duration_minutes":`, http.StatusBadRequest},
		{"zero duration", `{"duration_minutes":0,"candidate_ids":["A","B"]}`, http.StatusUnprocessableEntity},
		{"one candidate", `{"duration_minutes":1,"candidate_ids":["A"]}`, http.StatusUnprocessableEntity},
		{"duplicate candidates", `{"duration_minutes":1,"candidate_ids":["A","A"]}`, http.StatusUnprocessableEntity},
		{"empty candidate id", `{"duration_minutes":1,"candidate_ids":["A",""]}`, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			stub := &stubLifecycle{
				startFn: func(context.Context, ports.StartSessionInput) (*ports.StartResult, error) {
					t.Fatal("service must not be called")
					return nil, nil
				},
			}
			h := NewSessionHandler(stub, stubLive{}, zerolog.Nop())

			c, _ := jsonRequest(e, http.MethodPost, "/v1/sessions", tc.body)
			expectHTTPError(t, h.Start(c), tc.code)
		})
	}
}

func TestSessionHandler_Start_PropagatesConflict(t *testing.T) {
	e := newEcho()
	stub := &stubLifecycle{
		startFn: func(context.Context, ports.StartSessionInput) (*ports.StartResult, error) {
			return nil, domain.ErrSessionRunning
		},
	}
	h := NewSessionHandler(stub, stubLive{}, zerolog.Nop())

	c, _ := jsonRequest(e, http.MethodPost, "/v1/sessions", `{"duration_minutes":1,"candidate_ids":["A","B"]}`)
	if err := h.Start(c); !errors.Is(err, domain.ErrSessionRunning) {
		t.Fatalf("expected ErrSessionRunning, got %v", err)
	}
}

func TestSessionHandler_Stop(t *testing.T) {
	e := newEcho()
	stub := &stubLifecycle{
		stopFn: func(_ context.Context, reason domain.StopReason) (*ports.StopResult, error) {
			if reason != domain.StopManual {
				t.Fatalf("expected manual stop, got %s", reason)
			}
			return &ports.StopResult{
				SessionID:     "session_1",
				Reason:        reason,
				EndTime:       time.Unix(1030, 0),
				NonVotedCount: 2,
				Tally: domain.Tally{
					Candidates: []domain.CandidateCount{{CandidateID: "A", Letter: "A", Votes: 1}},
					Total:      1,
				},
			}, nil
		},
	}
	h := NewSessionHandler(stub, stubLive{}, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodPost, "/v1/sessions/current/stop", "")
	if err := h.Stop(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["reason"] != "manual" || resp["not_voted_count"] != float64(2) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if anomalies, ok := resp["anomalies"].([]any); !ok || len(anomalies) != 0 {
		t.Fatalf("expected empty anomalies array, got %#v", resp["anomalies"])
	}
}

func TestSessionHandler_Current_Idle(t *testing.T) {
	e := newEcho()
	stub := &stubLifecycle{
		statusFn: func(context.Context) (*ports.SessionStatus, error) {
			return &ports.SessionStatus{Remaining: "00:00"}, nil
		},
	}
	live := stubLive{snap: ports.LiveSnapshot{SessionID: "session_1", VoteCount: 3}}
	h := NewSessionHandler(stub, live, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodGet, "/v1/sessions/current", "")
	if err := h.Current(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["active"] != false {
		t.Fatalf("expected inactive, got %+v", resp)
	}
	if _, ok := resp["deadline"]; ok {
		t.Fatal("idle status must not carry a deadline")
	}
	liveResp, _ := resp["live"].(map[string]any)
	if liveResp["vote_count"] != float64(3) {
		t.Fatalf("unexpected live payload: %+v", liveResp)
	}
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

func TestCatalogHandler_List(t *testing.T) {
	e := newEcho()
	stub := &stubCatalog{
		listFn: func(context.Context) ([]ports.CatalogEntry, error) {
			return []ports.CatalogEntry{
				{ID: "session_2", Status: "active", TallyAvailable: true},
				{ID: "session_bad", Status: "unknown", Problem: "no tally available"},
			}, nil
		},
	}
	h := NewCatalogHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodGet, "/v1/sessions", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", resp["count"])
	}
	sessions := resp["sessions"].([]any)
	broken := sessions[1].(map[string]any)
	if broken["tally_available"] != false || broken["problem"] != "no tally available" {
		t.Fatalf("unexpected degraded entry: %+v", broken)
	}
}

func TestCatalogHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	stub := &stubCatalog{
		getFn: func(_ context.Context, id string) (*ports.SessionDetail, error) {
			if id != "session_9" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil, domain.ErrSessionNotFound
		},
	}
	h := NewCatalogHandler(stub, zerolog.Nop())

	c, _ := jsonRequest(e, http.MethodGet, "/", "")
	c.SetPath("/v1/sessions/:id")
	c.SetParamNames("id")
	c.SetParamValues("session_9")

	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogHandler_Purge(t *testing.T) {
	e := newEcho()
	var gotConfirm string
	stub := &stubCatalog{
		purgeFn: func(_ context.Context, id, confirm string) error {
			gotConfirm = confirm
			return nil
		},
	}
	h := NewCatalogHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodDelete, "/?confirm=session_1", "")
	c.SetParamNames("id")
	c.SetParamValues("session_1")

	if err := h.Purge(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotConfirm != "session_1" {
		t.Fatalf("confirm not forwarded, got %q", gotConfirm)
	}
}

// ─── Registry ─────────────────────────────────────────────────────────────────

func TestRegistryHandler_OpenThenComplete(t *testing.T) {
	e := newEcho()
	stub := &stubRegistration{
		completeFn: func(_ context.Context, in ports.CompleteRegistrationInput) (*domain.User, error) {
			if in.Name != "Alice" {
				t.Fatalf("unexpected name %q", in.Name)
			}
			return &domain.User{ID: "CARD1", Name: in.Name, CreatedAt: time.Unix(1000, 0)}, nil
		},
	}
	h := NewRegistryHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodPost, "/v1/registrations", "")
	if err := h.OpenRegistration(c); err != nil {
		t.Fatalf("open error: %v", err)
	}
	if rec.Code != http.StatusAccepted || decode(t, rec)["open"] != true {
		t.Fatalf("expected open state, got %d %s", rec.Code, rec.Body.String())
	}

	c, rec = jsonRequest(e, http.MethodPost, "/v1/registrations/complete", `{"name":"Alice"}`)
	if err := h.CompleteRegistration(c); err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["id"] != "CARD1" || resp["name"] != "Alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestRegistryHandler_Complete_RequiresName(t *testing.T) {
	e := newEcho()
	h := NewRegistryHandler(&stubRegistration{}, zerolog.Nop())

	c, _ := jsonRequest(e, http.MethodPost, "/v1/registrations/complete", `{"name":""}`)
	expectHTTPError(t, h.CompleteRegistration(c), http.StatusUnprocessableEntity)
}

func TestRegistryHandler_StateReportsRejectedCard(t *testing.T) {
	e := newEcho()
	stub := &stubRegistration{state: ports.RegistrationState{Open: true}, rejected: "CARD7"}
	h := NewRegistryHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodGet, "/v1/registrations", "")
	if err := h.State(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decode(t, rec); resp["last_rejected"] != "CARD7" {
		t.Fatalf("expected rejected card, got %+v", resp)
	}
}

func TestRegistryHandler_ListAndRemove(t *testing.T) {
	e := newEcho()
	stub := &stubRegistration{
		users: []domain.User{{ID: "A", Name: "Ann"}, {ID: "B"}},
		removeFn: func(_ context.Context, id string) error {
			if id == "A" {
				return domain.ErrUserIsCandidate
			}
			return nil
		},
	}
	h := NewRegistryHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodGet, "/v1/users", "")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("list error: %v", err)
	}
	users := decode(t, rec)["users"].([]any)
	if unnamed := users[1].(map[string]any); unnamed["name"] != "B" {
		t.Fatalf("expected id fallback for unnamed user, got %+v", unnamed)
	}

	c, _ = jsonRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("A")
	if err := h.RemoveUser(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	c, rec = jsonRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("B")
	if err := h.RemoveUser(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%v)", rec.Code, err)
	}
}

func TestRegistryHandler_Cancel(t *testing.T) {
	e := newEcho()
	stub := &stubRegistration{state: ports.RegistrationState{Open: true, PendingCardID: "X"}}
	h := NewRegistryHandler(stub, zerolog.Nop())

	c, rec := jsonRequest(e, http.MethodDelete, "/v1/registrations", "")
	if err := h.CancelRegistration(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !stub.cancelled || rec.Code != http.StatusNoContent {
		t.Fatalf("expected cancel + 204, got %v %d", stub.cancelled, rec.Code)
	}
}

// ─── Health ───────────────────────────────────────────────────────────────────

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	c, rec := jsonRequest(e, http.MethodGet, "/health", "")
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := NewHealthDependenciesHandler(nil, rdb)
	e := echo.New()

	c, rec := jsonRequest(e, http.MethodGet, "/health/ready", "")
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	deps := decode(t, rec)["dependencies"].(map[string]any)
	if deps["mongodb"].(map[string]any)["status"] != "disabled" {
		t.Fatalf("expected archive disabled, got %+v", deps)
	}

	mr.Close()
	c, rec = jsonRequest(e, http.MethodGet, "/health/ready", "")
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with redis down, got %d", rec.Code)
	}
}
