package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Attach(w, r)
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastDelivers(t *testing.T) {
	h := NewHub(zerolog.Nop())
	conn, done := dialHub(t, h)
	defer done()

	waitForClients(t, h, 1)
	h.Broadcast([]byte(`{"kind":"log"}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"kind":"log"}` {
		t.Fatalf("payload = %q", msg)
	}
}

func TestHubDropsStalledClient(t *testing.T) {
	old := writeWait
	writeWait = 50 * time.Millisecond
	defer func() { writeWait = old }()

	h := NewHub(zerolog.Nop())
	_, done := dialHub(t, h)
	defer done()

	waitForClients(t, h, 1)

	// The client never reads. Large payloads fill the kernel and
	// websocket buffers until writes block and the deadline trips.
	payload := bytes.Repeat([]byte("x"), 1<<20)
	deadline := time.Now().Add(5 * time.Second)
	for h.Clients() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("stalled client was never dropped")
		}
		h.Broadcast(payload)
	}
}
