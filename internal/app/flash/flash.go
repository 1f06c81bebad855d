// Package flash implements one-time user-facing notices. A message queued
// during one request is shown on the next rendered page and then discarded.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LevelSuccess = "success"
	LevelDanger  = "danger"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Store queues and drains flash messages for a browser session id.
type Store interface {
	Add(ctx context.Context, sessionID string, msg Message) error
	Pop(ctx context.Context, sessionID string) ([]Message, error)
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: time.Hour}
}

func key(sessionID string) string {
	return "flash:" + sessionID
}

func (s *RedisStore) Add(ctx context.Context, sessionID string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("flash.RedisStore.Add: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key(sessionID), payload)
	pipe.Expire(ctx, key(sessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flash.RedisStore.Add: %w", err)
	}
	return nil
}

func (s *RedisStore) Pop(ctx context.Context, sessionID string) ([]Message, error) {
	pipe := s.rdb.TxPipeline()
	items := pipe.LRange(ctx, key(sessionID), 0, -1)
	pipe.Del(ctx, key(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("flash.RedisStore.Pop: %w", err)
	}

	raw, err := items.Result()
	if err != nil {
		return nil, fmt.Errorf("flash.RedisStore.Pop: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip entries that do not decode
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
