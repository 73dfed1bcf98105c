package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erpcore/chatbot-backend/internal/workflow"
)

const redisSessionPrefix = "chat:session:"

// RedisSessionStore keeps session state in Redis so multiple instances can
// share conversations. Keys carry the idle timeout as their TTL, so no sweep
// is needed.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

type redisSessionValue struct {
	State   string `json:"state"`
	Context string `json:"context,omitempty"`
}

// NewRedisSessionStore connects to Redis and returns a session store.
func NewRedisSessionStore(addr, password string, db int, ttl time.Duration) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func (s *RedisSessionStore) Load(sessionID string) (*SessionState, error) {
	raw, err := s.client.Get(context.Background(), redisSessionPrefix+sessionID).Result()
	if err == redis.Nil {
		return freshSessionState(), nil
	}
	if err != nil {
		return nil, err
	}

	var value redisSessionValue
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	ctx, err := workflow.UnmarshalContext(value.Context)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	return &SessionState{
		State:      workflow.State(value.State),
		Context:    ctx,
		LastActive: time.Now(),
	}, nil
}

func (s *RedisSessionStore) Save(sessionID string, state *SessionState) error {
	rawCtx, err := workflow.MarshalContext(state.Context)
	if err != nil {
		return fmt.Errorf("serialize session %s: %w", sessionID, err)
	}
	data, err := json.Marshal(redisSessionValue{
		State:   string(state.State),
		Context: rawCtx,
	})
	if err != nil {
		return err
	}
	return s.client.Set(context.Background(), redisSessionPrefix+sessionID, data, s.ttl).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
