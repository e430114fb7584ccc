package storage

import (
	"context"
	"errors"
	"fmt"

	"giveabot/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisStateKey = "giveabot:state"

// RedisStore persists the state tree as a single JSON value. Each save is one
// SET, so the snapshot is always replaced atomically.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given redis server
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load reads the state snapshot, returning an empty tree when the key is unset
func (s *RedisStore) Load(ctx context.Context) (*models.BotState, error) {
	data, err := s.client.Get(ctx, redisStateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			log.WithField("key", redisStateKey).Info("No persisted state key found; starting with empty state")
			return models.NewBotState(), nil
		}
		return nil, fmt.Errorf("failed to load state from redis: %w", err)
	}

	state, err := models.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode persisted state: %w", err)
	}
	return state, nil
}

// Save replaces the state snapshot
func (s *RedisStore) Save(ctx context.Context, state *models.BotState) error {
	data, err := models.EncodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisStateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}
