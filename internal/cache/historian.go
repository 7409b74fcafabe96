// internal/cache/historian.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that action records are pushed to.
// An external historian consumer drains it for replay and audit.
const DefaultQueueName = "blanks_actions"

// ActionRecord is one session mutation as seen by the historian.
type ActionRecord struct {
	ID         uuid.UUID      `json:"id"`
	SessionKey string         `json:"session_key"`
	ActorID    string         `json:"actor_id"`
	ActionType string         `json:"action_type"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// Historian pushes action records onto a Redis queue. Pushes are quick
// network sends; sessions call Publish from their action-log hook.
type Historian struct {
	rdb   *redis.Client
	queue string
}

// Connect dials Redis using REDIS_ADDR (default "localhost:6379"),
// REDIS_DB and HISTORIAN_QUEUE_NAME, and verifies the connection.
func Connect(ctx context.Context) (*Historian, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		DB:   getEnvInt("REDIS_DB", 0),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Historian{rdb: rdb, queue: getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)}, nil
}

// Publish serializes the record and appends it to the queue. The record's
// ID and Timestamp are filled in if unset.
func (h *Historian) Publish(ctx context.Context, record ActionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	if err := h.rdb.RPush(ctx, h.queue, data).Err(); err != nil {
		return fmt.Errorf("rpush to %s: %w", h.queue, err)
	}
	return nil
}

// Close releases the underlying client.
func (h *Historian) Close() error {
	return h.rdb.Close()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
