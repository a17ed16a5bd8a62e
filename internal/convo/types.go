package convo

import (
	"context"
	"time"
)

// MaxTurns caps each conversation record; the oldest turns are dropped first.
const MaxTurns = 50

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a (user, persona) conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists rolling conversation history keyed by (userID, profileID).
//
// AppendExchange must be atomic per key: the user/assistant pair lands and the
// record is trimmed to MaxTurns in one step, so concurrent reconnects cannot
// lose turns.
type Store interface {
	AppendExchange(ctx context.Context, userID, profileID string, userText, assistantText string) error
	Recent(ctx context.Context, userID, profileID string, limit int) ([]Turn, error)
	Close() error
}
