package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const sessionTTL = 24 * time.Hour

// RedisStore keeps each session as a capped Redis list so history survives
// restarts and is shared between replicas.
type RedisStore struct {
	redis      *redis.Client
	maxEntries int
	now        func() time.Time
}

func NewRedisStore(client *redis.Client, maxEntries int, now func() time.Time) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &RedisStore{redis: client, maxEntries: maxEntries, now: now}
}

func (s *RedisStore) Append(ctx context.Context, sessionID, query, response string) error {
	data, err := json.Marshal(models.ConversationEntry{Query: query, Response: response, At: s.now()})
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal entry: %w", err)
	}
	key := sessionKey(sessionID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.maxEntries), -1)
		pipe.Expire(ctx, key, sessionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to persist entry: %w", err)
	}
	return nil
}

func (s *RedisStore) RecentContext(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toTurns(lastN(entries, n)), nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) (bool, error) {
	removed, err := s.redis.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("conversation: failed to clear session: %w", err)
	}
	return removed > 0, nil
}

func (s *RedisStore) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return Summary{SessionID: sessionID}, err
	}
	return Summary{SessionID: sessionID, TotalExchanges: len(entries), History: entries}, nil
}

func (s *RedisStore) load(ctx context.Context, sessionID string) ([]models.ConversationEntry, error) {
	raw, err := s.redis.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}
	entries := make([]models.ConversationEntry, 0, len(raw))
	for _, item := range raw {
		var e models.ConversationEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("conversation: failed to decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}
