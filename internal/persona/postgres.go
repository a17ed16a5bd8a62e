package persona

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the persona catalog from PostgreSQL. The catalog is
// written by an external content-management process; this store only reads.
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
		`CREATE TABLE IF NOT EXISTS personas (
			profile_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			personality TEXT NOT NULL DEFAULT '',
			trait TEXT NOT NULL DEFAULT '',
			humor_style TEXT NOT NULL DEFAULT '',
			flirting TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			interests TEXT[] NOT NULL DEFAULT '{}',
			greeting TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			voice_id TEXT NOT NULL DEFAULT '',
			voice_model_id TEXT NOT NULL DEFAULT '',
			stability DOUBLE PRECISION NOT NULL DEFAULT 0,
			similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
			style DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_personas_active ON personas (active);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init persona schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const personaColumns = `profile_id, name, avatar, personality, trait, humor_style, flirting,
	category, interests, greeting, active, voice_id, voice_model_id, stability, similarity, style`

func (s *PostgresStore) Get(ctx context.Context, profileID string) (Persona, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE profile_id=$1`, profileID)

	var p Persona
	var trait string
	err := row.Scan(
		&p.ProfileID, &p.Name, &p.Avatar, &p.Personality, &trait, &p.HumorStyle,
		&p.Flirting, &p.Category, &p.Interests, &p.Greeting, &p.Active,
		&p.Voice.VoiceID, &p.Voice.VoiceModelID,
		&p.Voice.Stability, &p.Voice.Similarity, &p.Voice.Style,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Persona{}, ErrNotFound
		}
		return Persona{}, fmt.Errorf("query persona: %w", err)
	}
	p.Trait = Trait(trait)
	return p, nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Persona, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE active ORDER BY profile_id`)
	if err != nil {
		return nil, fmt.Errorf("query personas: %w", err)
	}
	defer rows.Close()

	var out []Persona
	for rows.Next() {
		var p Persona
		var trait string
		if err := rows.Scan(
			&p.ProfileID, &p.Name, &p.Avatar, &p.Personality, &trait, &p.HumorStyle,
			&p.Flirting, &p.Category, &p.Interests, &p.Greeting, &p.Active,
			&p.Voice.VoiceID, &p.Voice.VoiceModelID,
			&p.Voice.Stability, &p.Voice.Similarity, &p.Voice.Style,
		); err != nil {
			return nil, fmt.Errorf("scan persona row: %w", err)
		}
		p.Trait = Trait(trait)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persona rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
