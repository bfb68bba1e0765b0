package handler

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
	"roomchat/internal/app/stream"
	"roomchat/internal/app/user"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
)

type fakeSession struct {
	snap      chat.Snapshot
	submitted []string
	inputs    []string
	err       error
}

func (f *fakeSession) Snapshot(context.Context) (chat.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSession) SubmitMessage(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	if strings.TrimSpace(text) == "" {
		return errs.NewError(errs.ErrEmptyMessage)
	}
	f.submitted = append(f.submitted, text)
	return nil
}

func (f *fakeSession) InputChanged(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.inputs = append(f.inputs, text)
	return nil
}

type response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestDeps(session *fakeSession) *AppDeps {
	return &AppDeps{
		Session: session,
		Config:  &configs.AppConfig{Environment: "development"},
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var res response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, res
}

func TestRouter_Health(t *testing.T) {
	rec, res := serve(t, Router(newTestDeps(&fakeSession{})), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK || res.Code != 0 {
		t.Fatalf("expected success, got %d %+v", rec.Code, res)
	}
}

func TestRouter_Snapshot(t *testing.T) {
	session := &fakeSession{snap: chat.Snapshot{
		Username: "me",
		Users:    []user.Profile{user.NewProfile("alice")},
	}}

	rec, res := serve(t, Router(newTestDeps(session)), http.MethodGet, "/api/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snap chat.Snapshot
	if err := json.Unmarshal(res.Data, &snap); err != nil {
		t.Fatalf("invalid snapshot: %v", err)
	}
	if snap.Username != "me" || len(snap.Users) != 1 || snap.Users[0].Avatar == "" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRouter_SubmitMessage(t *testing.T) {
	session := &fakeSession{}
	h := Router(newTestDeps(session))

	rec, res := serve(t, h, http.MethodPost, "/api/messages", `{"text":"hello"}`)
	if rec.Code != http.StatusOK || res.Code != 0 {
		t.Fatalf("expected success, got %d %+v", rec.Code, res)
	}
	if len(session.submitted) != 1 || session.submitted[0] != "hello" {
		t.Errorf("expected hello to be submitted, got %v", session.submitted)
	}

	_, res = serve(t, h, http.MethodPost, "/api/messages", `{"text":"   "}`)
	if res.Code != errs.ErrEmptyMessage {
		t.Errorf("expected code %d, got %+v", errs.ErrEmptyMessage, res)
	}

	_, res = serve(t, h, http.MethodPost, "/api/messages", `{"body":"hello"}`)
	if res.Code != errs.ErrInvalidJSONFormat {
		t.Errorf("expected code %d for an unknown field, got %+v", errs.ErrInvalidJSONFormat, res)
	}
}

func TestRouter_InputChanged(t *testing.T) {
	session := &fakeSession{}

	rec, _ := serve(t, Router(newTestDeps(session)), http.MethodPost, "/api/input", `{"text":"hel"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(session.inputs) != 1 || session.inputs[0] != "hel" {
		t.Errorf("expected the input change to be forwarded, got %v", session.inputs)
	}
}

func TestRouter_SessionErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"stopped", errs.NewError(errs.ErrSessionStopped), http.StatusServiceUnavailable, errs.ErrSessionStopped},
		{"throttled", errs.NewError(errs.ErrRateLimitExceeded), http.StatusTooManyRequests, errs.ErrRateLimitExceeded},
		{"closed", errs.NewError(errs.ErrChannelClosed), http.StatusServiceUnavailable, errs.ErrChannelClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Router(newTestDeps(&fakeSession{err: tc.err}))

			rec, res := serve(t, h, http.MethodPost, "/api/messages", `{"text":"hi"}`)
			if rec.Code != tc.wantStatus || res.Code != tc.wantCode {
				t.Errorf("expected %d/%d, got %d/%d", tc.wantStatus, tc.wantCode, rec.Code, res.Code)
			}
		})
	}
}

func TestRouter_IntentRateLimit(t *testing.T) {
	h := Router(newTestDeps(&fakeSession{}))

	limited := 0
	for i := 0; i < IntentBurst*2; i++ {
		rec, _ := serve(t, h, http.MethodPost, "/api/input", `{"text":"x"}`)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Error("expected requests beyond the burst to be rejected with 429")
	}
}

func TestRouter_Metrics(t *testing.T) {
	rec, _ := serve(t, Router(newTestDeps(&fakeSession{})), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "roomchat_") {
		t.Error("expected roomchat metrics in the exposition")
	}
}

func TestRouter_Stream(t *testing.T) {
	hub := stream.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	deps := newTestDeps(&fakeSession{})
	deps.Hub = hub

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		srv.Close()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Render(chat.Snapshot{Username: "me"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), `"type":"SNAPSHOT"`) {
		t.Errorf("expected a snapshot event, got %s", data)
	}
}
