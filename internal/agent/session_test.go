package agent

import (
	"context"
	"testing"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/db"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	if err := store.Append(ctx, "s1",
		Turn{Role: RoleCaller, Content: "hello"},
		Turn{Role: RoleAgent, Content: "hi there"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	history, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Content != "hello" || history[1].Role != RoleAgent {
		t.Errorf("history = %+v", history)
	}

	// The returned slice is a copy; mutating it must not affect the store.
	history[0].Content = "mutated"
	again, _ := store.History(ctx, "s1")
	if again[0].Content != "hello" {
		t.Error("History returned a shared slice")
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cleared, _ := store.History(ctx, "s1")
	if len(cleared) != 0 {
		t.Errorf("history after clear = %d turns", len(cleared))
	}
}

func TestMemorySessionStoreTTLEviction(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	store.Append(ctx, "stale", Turn{Role: RoleCaller, Content: "hello"})
	store.Append(ctx, "fresh", Turn{Role: RoleCaller, Content: "hello"})

	// Touch one session later; the other ages out.
	store.now = func() time.Time { return base.Add(50 * time.Minute) }
	if _, err := store.History(ctx, "fresh"); err != nil {
		t.Fatalf("History: %v", err)
	}

	store.now = func() time.Time { return base.Add(90 * time.Minute) }
	count, err := store.ActiveCount(ctx)
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after eviction", count)
	}
	history, _ := store.History(ctx, "stale")
	if len(history) != 0 {
		t.Error("stale session survived its TTL")
	}
}

func TestSQLiteSessionStoreRoundTrip(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	defer database.Close()

	store := NewSQLiteSessionStore(database, time.Hour)
	ctx := context.Background()

	if err := store.Append(ctx, "s1",
		Turn{Role: RoleCaller, Content: "first"},
		Turn{Role: RoleAgent, Content: "second"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, "s1", Turn{Role: RoleCaller, Content: "third"}); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	history, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Ordering follows the stored sequence, not insertion timestamps.
	if history[0].Content != "first" || history[2].Content != "third" {
		t.Errorf("history out of order: %+v", history)
	}

	count, err := store.ActiveCount(ctx)
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	history, _ = store.History(ctx, "s1")
	if len(history) != 0 {
		t.Errorf("history after clear = %d turns", len(history))
	}
	count, _ = store.ActiveCount(ctx)
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}
}

func TestSQLiteSessionStoreEmptyHistory(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	defer database.Close()

	store := NewSQLiteSessionStore(database, 0)
	history, err := store.History(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history = %d turns, want none", len(history))
	}
}
