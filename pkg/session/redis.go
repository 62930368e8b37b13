package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/platinummonkey/membergate/pkg/observability"
)

// RedisStore is the production session store. Keys carry a TTL of twice the
// idle threshold so abandoned sessions expire even if the client-side
// monitor never fires.
type RedisStore struct {
	client        *redis.Client
	idleThreshold time.Duration
	metrics       *observability.Metrics
}

// NewRedisStore creates a session store on an existing redis client.
func NewRedisStore(client *redis.Client, idleThreshold time.Duration, metrics *observability.Metrics) *RedisStore {
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &RedisStore{client: client, idleThreshold: idleThreshold, metrics: metrics}
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return "gc_session:" + id
}

func (s *RedisStore) ttl() time.Duration {
	return 2 * s.idleThreshold
}

// Establish creates a new live session for the account.
func (s *RedisStore) Establish(ctx context.Context, accountID int64) (string, error) {
	now := time.Now()
	state := &State{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		LastActivity:  now,
		IdleThreshold: s.idleThreshold,
		CreatedAt:     now,
	}
	if err := s.write(ctx, state); err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	return state.ID, nil
}

// Get returns the session state.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	state := &State{}
	if err := json.Unmarshal([]byte(data), state); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return state, nil
}

// Touch advances LastActivity (never backwards) and records the media flag.
func (s *RedisStore) Touch(ctx context.Context, id string, at time.Time, mediaPlaying bool) error {
	state, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if at.After(state.LastActivity) {
		state.LastActivity = at
	}
	state.MediaPlaying = mediaPlaying
	return s.write(ctx, state)
}

// Invalidate removes the session permanently.
func (s *RedisStore) Invalidate(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(state.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
