package convo

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps conversation history in-process for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]Turn)}
}

func key(userID, profileID string) string { return userID + "\x00" + profileID }

func (s *InMemoryStore) AppendExchange(_ context.Context, userID, profileID, userText, assistantText string) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, profileID)
	turns := append(s.records[k],
		Turn{Role: RoleUser, Content: userText, CreatedAt: now},
		Turn{Role: RoleAssistant, Content: assistantText, CreatedAt: now},
	)
	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}
	s.records[k] = turns
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, userID, profileID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.records[key(userID, profileID)]
	if len(turns) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(turns) {
		limit = len(turns)
	}
	out := make([]Turn, limit)
	copy(out, turns[len(turns)-limit:])
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
