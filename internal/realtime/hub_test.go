package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/otiai10/projectdeck/internal/session"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.URL.Query().Get("uid")
		hub.ServeWS(w, r, uid, session.Event{Type: session.EventIdentity, Data: map[string]string{"uid": uid}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return ev
}

func TestHub_InitialEventThenNotifications(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)
	conn := dial(t, srv, "u1")

	first := readEvent(t, conn)
	if first["type"] != string(session.EventIdentity) {
		t.Fatalf("first event type = %v, want identity", first["type"])
	}

	hub.Notify("u1", session.Event{Type: session.EventProjects, Data: session.ProjectsChanged{Count: 2}})
	hub.Notify("someone-else", session.Event{Type: session.EventProjects})

	ev := readEvent(t, conn)
	if ev["type"] != string(session.EventProjects) {
		t.Errorf("event type = %v, want projects", ev["type"])
	}
	data, _ := ev["data"].(map[string]any)
	if data["count"] != float64(2) {
		t.Errorf("data = %v, want count 2", ev["data"])
	}
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)
	a := dial(t, srv, "u1")
	b := dial(t, srv, "u1")
	readEvent(t, a)
	readEvent(t, b)

	if got := hub.ClientCount("u1"); got != 2 {
		t.Fatalf("ClientCount() = %d, want 2", got)
	}

	hub.Notify("u1", session.Event{Type: session.EventSubscription})
	for _, conn := range []*websocket.Conn{a, b} {
		if ev := readEvent(t, conn); ev["type"] != string(session.EventSubscription) {
			t.Errorf("event type = %v, want subscription", ev["type"])
		}
	}
}

func TestHub_SignedOutClosesConnections(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)
	conn := dial(t, srv, "u1")
	readEvent(t, conn)

	hub.Notify("u1", session.Event{Type: session.EventSignedOut})

	if ev := readEvent(t, conn); ev["type"] != string(session.EventSignedOut) {
		t.Errorf("event type = %v, want signed-out", ev["type"])
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed after sign-out")
	}
	if hub.ClientCount("u1") != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount("u1"))
	}
}

func TestHub_RejectsCrossOrigin(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return r.Header.Get("Origin") == "https://app.example.com" })
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid=u1"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %v, want 403", resp)
	}
	if hub.Len() != 0 {
		t.Errorf("Len() = %d, want 0", hub.Len())
	}
}
