package convo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation history in PostgreSQL, one row per
// (user_id, profile_id) holding the turn array as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			user_id TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			turns JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, profile_id)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init conversation schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// appendExchangeSQL appends the new pair and keeps only the newest MaxTurns
// in a single statement, making the append+trim atomic per key.
const appendExchangeSQL = `
INSERT INTO conversations (user_id, profile_id, turns, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (user_id, profile_id) DO UPDATE
SET turns = (
	SELECT COALESCE(jsonb_agg(elem ORDER BY ord), '[]'::jsonb)
	FROM (
		SELECT elem, ord
		FROM jsonb_array_elements(conversations.turns || excluded.turns)
			WITH ORDINALITY AS e(elem, ord)
		ORDER BY ord DESC
		LIMIT $4
	) tail
), updated_at = now()`

func (s *PostgresStore) AppendExchange(ctx context.Context, userID, profileID, userText, assistantText string) error {
	now := time.Now().UTC()
	pair, err := json.Marshal([]Turn{
		{Role: RoleUser, Content: userText, CreatedAt: now},
		{Role: RoleAssistant, Content: assistantText, CreatedAt: now},
	})
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	if _, err := s.pool.Exec(ctx, appendExchangeSQL, userID, profileID, string(pair), MaxTurns); err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, userID, profileID string, limit int) ([]Turn, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT turns FROM conversations WHERE user_id=$1 AND profile_id=$2`,
		userID, profileID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
