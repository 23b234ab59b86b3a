package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub, roomID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.AddConnection(roomID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	// The handler registers the connection after the handshake completes;
	// wait for it so an immediate Broadcast is not lost.
	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount(roomID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return client
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	client := dialHub(t, hub, 7)

	hub.Broadcast(7, WSMessage{Type: "player_joined", Data: map[string]string{"name": "Alice"}})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "player_joined" {
		t.Errorf("type = %q, want player_joined", msg.Type)
	}
}

func TestHubBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()
	client := dialHub(t, hub, 1)

	hub.Broadcast(2, WSMessage{Type: "phase_changed"})
	hub.Broadcast(1, WSMessage{Type: "player_ready"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "player_ready" {
		t.Errorf("received %q, should only see own room's events", msg.Type)
	}
}

func TestHubBroadcastNoClients(t *testing.T) {
	hub := NewHub()
	// Must not panic or block with no subscribers.
	hub.Broadcast(99, WSMessage{Type: "game_ended"})
}
