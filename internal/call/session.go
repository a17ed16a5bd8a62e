package call

import (
	"sync"
	"time"

	"github.com/sahelilabs/saheli/internal/audio"
	"github.com/sahelilabs/saheli/internal/persona"
)

// State names the phase a call session is in. Transitions happen only on
// the session's connection goroutine.
type State string

const (
	StateIdle         State = "idle"
	StateReady        State = "ready"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSpeaking     State = "speaking"
	StateEnded        State = "ended"
)

// Session is the per-connection call state. One websocket, one session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	Buffer *audio.StreamBuffer

	mu           sync.RWMutex
	state        State
	profileID    string
	persona      persona.Persona
	lastActivity time.Time
}

func newSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		Buffer:       audio.NewStreamBuffer(),
		state:        StateIdle,
		lastActivity: now,
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) ProfileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileID
}

func (s *Session) Persona() persona.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

func (s *Session) bindPersona(p persona.Persona) {
	s.mu.Lock()
	s.profileID = p.ProfileID
	s.persona = p
	s.mu.Unlock()
}

// Touch records caller activity for the inactivity janitor.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}
