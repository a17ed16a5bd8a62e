package convo

import (
	"context"
	"fmt"
	"testing"
)

func TestAppendExchangeOrdersPair(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.AppendExchange(ctx, "u1", "priya", "hi there", "hello ji"); err != nil {
		t.Fatalf("AppendExchange() error = %v", err)
	}

	turns, err := s.Recent(ctx, "u1", "priya", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hi there" {
		t.Fatalf("turns[0] = %+v, want user turn first", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "hello ji" {
		t.Fatalf("turns[1] = %+v, want assistant turn second", turns[1])
	}
}

func TestAppendExchangeTrimsToCap(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		if err := s.AppendExchange(ctx, "u1", "priya",
			fmt.Sprintf("user %d", i), fmt.Sprintf("assistant %d", i)); err != nil {
			t.Fatalf("AppendExchange(%d) error = %v", i, err)
		}
	}

	turns, err := s.Recent(ctx, "u1", "priya", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != MaxTurns {
		t.Fatalf("len(turns) = %d, want %d", len(turns), MaxTurns)
	}
	// 30 exchanges = 60 turns; the first 10 should have been dropped.
	if turns[0].Content != "user 5" {
		t.Fatalf("oldest surviving turn = %q, want %q", turns[0].Content, "user 5")
	}
	if turns[len(turns)-1].Content != "assistant 29" {
		t.Fatalf("newest turn = %q, want %q", turns[len(turns)-1].Content, "assistant 29")
	}
}

func TestRecentIsolatesKeys(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.AppendExchange(ctx, "u1", "priya", "a", "b")
	_ = s.AppendExchange(ctx, "u1", "meera", "c", "d")
	_ = s.AppendExchange(ctx, "u2", "priya", "e", "f")

	turns, err := s.Recent(ctx, "u1", "priya", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "a" {
		t.Fatalf("wrong turns for (u1, priya): %+v", turns)
	}
}

func TestRecentLimitReturnsNewest(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_ = s.AppendExchange(ctx, "u1", "priya", "one", "two")
	_ = s.AppendExchange(ctx, "u1", "priya", "three", "four")

	turns, err := s.Recent(ctx, "u1", "priya", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "three" || turns[1].Content != "four" {
		t.Fatalf("Recent(limit 2) = %+v, want newest pair", turns)
	}
}
