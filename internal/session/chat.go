// Package session keeps the ordered (speaker, message) chat history for each
// logged-in session. The handler layer owns session lifecycle; this package
// only appends, reads and clears the sequence. Redis is the normal backend
// so history survives restarts and expires on its own; when Redis is
// unreachable at startup the service degrades to a per-process in-memory
// store.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one entry of a chat history.
type Message struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ChatStore stores per-session chat histories. Implementations must preserve
// append order.
type ChatStore interface {
	Append(ctx context.Context, sessionID string, msg Message) error
	History(ctx context.Context, sessionID string) ([]Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// NewChatStore returns a Redis-backed store, or the in-memory fallback when
// the client is nil (connection failed at startup).
func NewChatStore(client *redis.Client, ttl time.Duration) ChatStore {
	if client == nil {
		return NewMemoryChatStore()
	}
	return &RedisChatStore{client: client, ttl: ttl}
}

// RedisChatStore keeps each history in a Redis list under chat:<session id>.
// The key's TTL is refreshed on every append so active sessions stay alive
// and abandoned ones expire.
type RedisChatStore struct {
	client *redis.Client
	ttl    time.Duration
}

func chatKey(sessionID string) string { return "chat:" + sessionID }

func (s *RedisChatStore) Append(ctx context.Context, sessionID string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	key := chatKey(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh chat ttl: %w", err)
	}
	return nil
}

func (s *RedisChatStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisChatStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, chatKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

// MemoryChatStore is the fallback used when Redis is unavailable and the
// backend for tests. Histories live for the process lifetime only.
type MemoryChatStore struct {
	mu        sync.Mutex
	histories map[string][]Message
}

func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{histories: make(map[string][]Message)}
}

func (s *MemoryChatStore) Append(_ context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[sessionID] = append(s.histories[sessionID], msg)
	return nil
}

func (s *MemoryChatStore) History(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.histories[sessionID]
	out := make([]Message, len(h))
	copy(out, h)
	return out, nil
}

func (s *MemoryChatStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, sessionID)
	return nil
}
