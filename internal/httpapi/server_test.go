package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sahelilabs/saheli/internal/auth"
	"github.com/sahelilabs/saheli/internal/call"
	"github.com/sahelilabs/saheli/internal/config"
	"github.com/sahelilabs/saheli/internal/convo"
	"github.com/sahelilabs/saheli/internal/gateway"
	"github.com/sahelilabs/saheli/internal/observability"
	"github.com/sahelilabs/saheli/internal/persona"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	personas := persona.NewInMemoryStore(persona.SeedCatalog())
	latency := observability.NewLatencyWindow(32)
	registry := call.NewRegistry(time.Minute, nil)
	orch := call.NewOrchestrator(
		personas,
		convo.NewInMemoryStore(),
		nil,
		&gateway.FakeTranscriber{Text: "hello"},
		&gateway.FakeGenerator{},
		&gateway.FakeSynthesizer{},
		latency,
	)
	srv := New(
		config.Config{AllowAnyOrigin: true},
		personas,
		registry,
		orch,
		auth.NewStaticVerifier(map[string]string{"tok-1": "u1"}),
		latency,
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, res.StatusCode)
		}
		res.Body.Close()
	}
}

func TestListPersonasReturnsOnlyActive(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/personas")
	if err != nil {
		t.Fatalf("GET /v1/personas error = %v", err)
	}
	defer res.Body.Close()

	var out struct {
		Personas []struct {
			ProfileID string `json:"profileId"`
			Name      string `json:"name"`
		} `json:"personas"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(out.Personas) != 2 {
		t.Fatalf("len(personas) = %d, want 2 active", len(out.Personas))
	}
	for _, p := range out.Personas {
		if p.ProfileID == "ananya" {
			t.Fatalf("inactive persona %q listed", p.ProfileID)
		}
	}
}

func TestCallWSRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/call/ws")
	if err != nil {
		t.Fatalf("GET /v1/call/ws error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.StatusCode)
	}
}

func TestCallWSStartAndEnd(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/call/ws?token=tok-1"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "start-call", "profileId": "priya"}); err != nil {
		t.Fatalf("write start-call error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ready struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read ready error = %v", err)
	}
	if ready.Type != "ready" || ready.Name != "Priya Sharma" {
		t.Fatalf("ready = %+v", ready)
	}

	// Greeting follows: ai-speaking then ai-audio.
	var evt struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&evt); err != nil || evt.Type != "ai-speaking" {
		t.Fatalf("expected ai-speaking, got %+v err %v", evt, err)
	}
	if err := conn.ReadJSON(&evt); err != nil || evt.Type != "ai-audio" {
		t.Fatalf("expected ai-audio, got %+v err %v", evt, err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "end-call"}); err != nil {
		t.Fatalf("write end-call error = %v", err)
	}
}

func TestCallWSReportsInvalidMessage(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/call/ws?token=tok-1"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "bogus"}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if evt.Type != "error" {
		t.Fatalf("event type = %q, want error", evt.Type)
	}
}
