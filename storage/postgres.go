package storage

import (
	"context"
	"errors"
	"fmt"

	"giveabot/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PostgresStore persists the state tree as a single JSONB row. The whole tree
// is written in one statement, so every save is atomic.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Load reads the persisted state row, returning an empty tree when none exists
func (s *PostgresStore) Load(ctx context.Context) (*models.BotState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM bot_state WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Info("No persisted state row found; starting with empty state")
			return models.NewBotState(), nil
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	state, err := models.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode persisted state: %w", err)
	}
	return state, nil
}

// Save upserts the full state tree into the single state row
func (s *PostgresStore) Save(ctx context.Context, state *models.BotState) error {
	data, err := models.EncodeState(state)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bot_state (id, state, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()
	`, data)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
