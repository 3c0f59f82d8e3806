// Package session keeps per-conversation chat history in Redis so a
// follow-up query can be answered with context.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Store appends and reads conversation turns. History is kept per
// workspace and session under a TTL that refreshes on every append.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(workspaceID, sessionID string) string {
	return fmt.Sprintf("aiops:session:%s:%s", workspaceID, sessionID)
}

// Append records a turn and refreshes the session TTL.
func (s *Store) Append(ctx context.Context, workspaceID, sessionID string, turn Turn) error {
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	key := s.key(workspaceID, sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append session turn: %w", err)
	}
	return nil
}

// History returns all turns for a session in order. A missing session
// yields an empty slice.
func (s *Store) History(ctx context.Context, workspaceID, sessionID string) ([]Turn, error) {
	entries, err := s.client.LRange(ctx, s.key(workspaceID, sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session history: %w", err)
	}

	turns := make([]Turn, 0, len(entries))
	for _, entry := range entries {
		var turn Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("decode session turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
