package live

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

func startHub(t *testing.T, maxClients int) (*Hub, string) {
	t.Helper()
	hub := NewHub(maxClients, nil, zerolog.Nop())
	e := echo.New()
	e.GET("/v1/live", hub.ServeWS)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/live"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if msg["type"] != "snapshot" {
		t.Fatalf("unexpected message type %v", msg["type"])
	}
	return msg["payload"].(map[string]any)
}

func TestHub_BroadcastsPublishedSnapshots(t *testing.T) {
	hub, url := startHub(t, 4)
	a := dial(t, url)
	b := dial(t, url)
	waitClients(t, hub, 2)

	hub.Publish(ports.LiveSnapshot{SessionID: "session_1", Active: true, VoteCount: 2, Remaining: "00:30"})

	for _, conn := range []*websocket.Conn{a, b} {
		p := readSnapshot(t, conn)
		if p["session_id"] != "session_1" || p["vote_count"] != float64(2) || p["remaining"] != "00:30" {
			t.Fatalf("unexpected payload: %+v", p)
		}
	}
}

func TestHub_ReplaysLatestOnConnect(t *testing.T) {
	hub, url := startHub(t, 4)
	hub.Publish(ports.LiveSnapshot{SessionID: "session_1", VoteCount: 1})
	hub.Publish(ports.LiveSnapshot{SessionID: "session_1", VoteCount: 5})

	conn := dial(t, url)
	if p := readSnapshot(t, conn); p["vote_count"] != float64(5) {
		t.Fatalf("expected latest snapshot on connect, got %+v", p)
	}
}

func TestHub_RejectsWhenFull(t *testing.T) {
	hub, url := startHub(t, 1)
	dial(t, url)
	waitClients(t, hub, 1)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail when the hub is full")
	}
	if resp == nil || resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %+v", resp)
	}
}

func TestHub_RemovesClosedClients(t *testing.T) {
	hub, url := startHub(t, 4)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	_ = conn.Close()
	waitClients(t, hub, 0)
}
