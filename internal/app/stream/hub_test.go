package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/user"
	"roomchat/internal/pkg/errs"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))

	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func subscribe(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", want, hub.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) (EventType, json.RawMessage) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var event struct {
		Type    EventType       `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("invalid event %s: %v", data, err)
	}
	return event.Type, event.Payload
}

func TestHub_BroadcastsSnapshots(t *testing.T) {
	hub, url := startHub(t)
	first := subscribe(t, hub, url, 1)
	second := subscribe(t, hub, url, 2)

	hub.Render(chat.Snapshot{Username: "me", Users: []user.Profile{user.NewProfile("alice")}})

	for _, conn := range []*websocket.Conn{first, second} {
		kind, payload := readEvent(t, conn)
		if kind != TypeSnapshot {
			t.Fatalf("expected a snapshot event, got %s", kind)
		}
		var snap chat.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			t.Fatalf("invalid snapshot: %v", err)
		}
		if snap.Username != "me" || len(snap.Users) != 1 || snap.Users[0].Name != "alice" {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	}
}

func TestHub_NewSubscriberGetsLatestSnapshot(t *testing.T) {
	hub, url := startHub(t)
	early := subscribe(t, hub, url, 1)

	hub.Render(chat.Snapshot{Username: "me"})
	readEvent(t, early)

	late := subscribe(t, hub, url, 2)
	if kind, _ := readEvent(t, late); kind != TypeSnapshot {
		t.Errorf("expected the latest snapshot on subscribe, got %s", kind)
	}
}

func TestHub_SendFailed(t *testing.T) {
	hub, url := startHub(t)
	conn := subscribe(t, hub, url, 1)

	hub.SendFailed("hello", errs.NewError(errs.ErrChannelFull))

	kind, payload := readEvent(t, conn)
	if kind != TypeSendFailed {
		t.Fatalf("expected a send failure event, got %s", kind)
	}
	var failed SendFailedPayload
	if err := json.Unmarshal(payload, &failed); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if failed.Body != "hello" || failed.Code != errs.ErrChannelFull {
		t.Errorf("unexpected payload %+v", failed)
	}
}

func TestHub_SubscriberLeaves(t *testing.T) {
	hub, url := startHub(t)
	conn := subscribe(t, hub, url, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the subscriber to be unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_RenderWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastChannelBuffer*2; i++ {
			hub.Render(chat.Snapshot{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Render blocked on a full broadcast queue")
	}
}
