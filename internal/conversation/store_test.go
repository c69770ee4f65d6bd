package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(DefaultMaxEntries, fixedClock()),
		"redis":  NewRedisStore(client, DefaultMaxEntries, fixedClock()),
	}
}

func TestAppendKeepsLastTenEntries(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 11; i++ {
				if err := store.Append(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			sum, err := store.Summarize(ctx, "s1")
			if err != nil {
				t.Fatalf("summarize: %v", err)
			}
			if sum.TotalExchanges != 10 || len(sum.History) != 10 {
				t.Fatalf("expected 10 retained entries, got %d/%d", sum.TotalExchanges, len(sum.History))
			}
			if sum.History[0].Query != "q2" || sum.History[9].Query != "q11" {
				t.Fatalf("expected q2..q11, got %s..%s", sum.History[0].Query, sum.History[9].Query)
			}
		})
	}
}

func TestRecentContextAlternatesOldestFirst(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 7; i++ {
				_ = store.Append(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
			}

			turns, err := store.RecentContext(ctx, "s1", 5)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(turns) != 10 {
				t.Fatalf("expected 10 turns, got %d", len(turns))
			}
			if turns[0].Role != RoleUser || turns[0].Content != "q3" {
				t.Fatalf("expected first turn user q3, got %+v", turns[0])
			}
			if turns[1].Role != RoleAssistant || turns[1].Content != "a3" {
				t.Fatalf("expected second turn assistant a3, got %+v", turns[1])
			}
			if turns[9].Content != "a7" {
				t.Fatalf("expected last turn a7, got %+v", turns[9])
			}
		})
	}
}

func TestUnknownSessionIsEmpty(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			turns, err := store.RecentContext(ctx, "missing", 5)
			if err != nil || len(turns) != 0 {
				t.Fatalf("expected empty context, got %v err=%v", turns, err)
			}
			sum, err := store.Summarize(ctx, "missing")
			if err != nil || sum.TotalExchanges != 0 {
				t.Fatalf("expected zero summary, got %+v err=%v", sum, err)
			}
			removed, err := store.Clear(ctx, "missing")
			if err != nil || removed {
				t.Fatalf("expected nothing removed, got %v err=%v", removed, err)
			}
		})
	}
}

func TestClearRemovesSessionOnly(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = store.Append(ctx, "a", "q", "r")
			_ = store.Append(ctx, "b", "q", "r")

			removed, err := store.Clear(ctx, "a")
			if err != nil || !removed {
				t.Fatalf("expected session a removed, got %v err=%v", removed, err)
			}
			sum, _ := store.Summarize(ctx, "b")
			if sum.TotalExchanges != 1 {
				t.Fatalf("expected session b untouched, got %d", sum.TotalExchanges)
			}
		})
	}
}

func TestMemoryStoreCustomLimitAndClock(t *testing.T) {
	store := NewMemoryStore(2, fixedClock())
	ctx := context.Background()
	_ = store.Append(ctx, "s", "q1", "a1")
	_ = store.Append(ctx, "s", "q2", "a2")
	_ = store.Append(ctx, "s", "q3", "a3")

	sum, _ := store.Summarize(ctx, "s")
	if sum.TotalExchanges != 2 || sum.History[0].Query != "q2" {
		t.Fatalf("expected [q2 q3], got %+v", sum.History)
	}
	if !sum.History[0].At.Equal(fixedClock()()) {
		t.Fatalf("expected injected clock timestamp, got %s", sum.History[0].At)
	}
}
