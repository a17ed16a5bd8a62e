package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sahelilabs/saheli/internal/auth"
	"github.com/sahelilabs/saheli/internal/call"
	"github.com/sahelilabs/saheli/internal/config"
	"github.com/sahelilabs/saheli/internal/observability"
	"github.com/sahelilabs/saheli/internal/persona"
	"github.com/sahelilabs/saheli/internal/protocol"
)

type Orchestrator interface {
	RunConnection(ctx context.Context, s *call.Session, inbound <-chan any, outbound chan<- any) error
}

type Server struct {
	cfg          config.Config
	personas     persona.Store
	registry     *call.Registry
	orchestrator Orchestrator
	verifier     auth.Verifier
	latency      *observability.LatencyWindow
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	personas persona.Store,
	registry *call.Registry,
	orchestrator Orchestrator,
	verifier auth.Verifier,
	latency *observability.LatencyWindow,
) *Server {
	return &Server{
		cfg:          cfg,
		personas:     personas,
		registry:     registry,
		orchestrator: orchestrator,
		verifier:     verifier,
		latency:      latency,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin only by default: another site must not be able to
				// drive the user's microphone call.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/personas", s.handleListPersonas)
	r.Get("/v1/call/ws", s.handleCallWS)
	r.Get("/v1/call/latency", s.handleCallLatency)
	r.Get("/v1/call/active", s.handleCallActive)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"active_calls": s.registry.Count(),
	})
}

type personaSummary struct {
	ProfileID string   `json:"profileId"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Category  string   `json:"category"`
	Interests []string `json:"interests,omitempty"`
	Greeting  string   `json:"greeting,omitempty"`
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := s.personas.ListActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "persona_store_error", err.Error())
		return
	}
	out := make([]personaSummary, 0, len(personas))
	for _, p := range personas {
		out = append(out, personaSummary{
			ProfileID: p.ProfileID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Category:  p.Category,
			Interests: p.Interests,
			Greeting:  p.Greeting,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"personas": out})
}

func (s *Server) handleCallLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.latency.Snapshot())
}

func (s *Server) handleCallActive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"calls": s.registry.Snapshot()})
}

// bearerToken pulls the caller token from the Authorization header, falling
// back to the token query parameter for browser websocket clients that
// cannot set headers.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (s *Server) handleCallWS(w http.ResponseWriter, r *http.Request) {
	userID, err := s.verifier.Verify(r.Context(), bearerToken(r))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
			return
		}
		respondError(w, http.StatusBadGateway, "auth_unavailable", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := s.registry.Create(userID)
	defer s.registry.Remove(sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 256)
	outbound := make(chan any, 256)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		_ = s.orchestrator.RunConnection(ctx, sess, inbound, outbound)
		cancel()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{Type: protocol.TypeError, Message: err.Error()}
			select {
			case outbound <- errEvent:
			default:
				// Writes stay single-threaded; drop if the outbound queue is full.
			}
			continue
		}

		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
