package call

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahelilabs/saheli/internal/observability"
)

// Registry tracks active call sessions and expires the inactive ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl      time.Duration
	onExpire func(*Session)
}

// SessionInfo is the read-only view served by the active-calls endpoint.
type SessionInfo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProfileID    string    `json:"profileId"`
	State        State     `json:"state"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

func NewRegistry(ttl time.Duration, onExpire func(*Session)) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		onExpire: onExpire,
	}
}

// Create registers a fresh session for the user.
func (r *Registry) Create(userID string) *Session {
	s := newSession(uuid.NewString(), userID, time.Now())

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	observability.ActiveCalls.Inc()
	observability.CallEvents.WithLabelValues("started").Inc()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session. Safe to call twice.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		s.setState(StateEnded)
		observability.ActiveCalls.Dec()
		observability.CallEvents.WithLabelValues("ended").Inc()
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot lists active sessions ordered by creation time.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			ID:           s.ID,
			UserID:       s.UserID,
			ProfileID:    s.ProfileID(),
			State:        s.State(),
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// StartJanitor expires sessions with no caller activity for the TTL.
// Blocks until ctx is done; run it on its own goroutine.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.expireIdle(time.Now())
		}
	}
}

func (r *Registry) expireIdle(now time.Time) {
	var expired []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastActivity()) >= r.ttl {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.setState(StateEnded)
		observability.ActiveCalls.Dec()
		observability.CallEvents.WithLabelValues("expired").Inc()
		if r.onExpire != nil {
			r.onExpire(s)
		}
	}
}
