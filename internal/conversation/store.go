// Package conversation keeps bounded per-session question/answer history for the
// chat-assistance path.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	DefaultMaxEntries  = 10
	DefaultContextSize = 5

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one side of an exchange, as fed back into a prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Summary struct {
	SessionID      string                     `json:"session_id"`
	TotalExchanges int                        `json:"total_exchanges"`
	History        []models.ConversationEntry `json:"history"`
}

// Store is implemented by MemoryStore and RedisStore. Reads of unknown sessions
// return empty results, never errors.
type Store interface {
	Append(ctx context.Context, sessionID, query, response string) error
	RecentContext(ctx context.Context, sessionID string, n int) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) (bool, error)
	Summarize(ctx context.Context, sessionID string) (Summary, error)
}

type MemoryStore struct {
	maxEntries int
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string][]models.ConversationEntry
}

func NewMemoryStore(maxEntries int, now func() time.Time) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		now:        now,
		sessions:   map[string][]models.ConversationEntry{},
	}
}

func (s *MemoryStore) Append(_ context.Context, sessionID, query, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.sessions[sessionID], models.ConversationEntry{
		Query:    query,
		Response: response,
		At:       s.now(),
	})
	if over := len(entries) - s.maxEntries; over > 0 {
		entries = append([]models.ConversationEntry(nil), entries[over:]...)
	}
	s.sessions[sessionID] = entries
	return nil
}

func (s *MemoryStore) RecentContext(_ context.Context, sessionID string, n int) ([]Turn, error) {
	s.mu.Lock()
	entries := s.sessions[sessionID]
	s.mu.Unlock()
	return toTurns(lastN(entries, n)), nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	return true, nil
}

func (s *MemoryStore) Summarize(_ context.Context, sessionID string) (Summary, error) {
	s.mu.Lock()
	history := append([]models.ConversationEntry{}, s.sessions[sessionID]...)
	s.mu.Unlock()
	return Summary{SessionID: sessionID, TotalExchanges: len(history), History: history}, nil
}

func lastN(entries []models.ConversationEntry, n int) []models.ConversationEntry {
	if n <= 0 {
		n = DefaultContextSize
	}
	if len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}

// toTurns flattens entries into alternating user/assistant turns, oldest first.
func toTurns(entries []models.ConversationEntry) []Turn {
	turns := make([]Turn, 0, len(entries)*2)
	for _, e := range entries {
		turns = append(turns,
			Turn{Role: RoleUser, Content: e.Query},
			Turn{Role: RoleAssistant, Content: e.Response},
		)
	}
	return turns
}
