package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/assignment"
)

// countingStore counts hits against the backing store.
type countingStore struct {
	assignments map[string]*domain.Assignment
	finds       int
	inserts     int
}

func (c *countingStore) Find(_ context.Context, experimentID, userID string) (*domain.Assignment, error) {
	c.finds++
	a, ok := c.assignments[experimentID+"/"+userID]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (c *countingStore) InsertIfAbsent(_ context.Context, a *domain.Assignment) (bool, *domain.Assignment, error) {
	c.inserts++
	k := a.ExperimentID + "/" + a.UserID
	if existing, ok := c.assignments[k]; ok {
		cp := *existing
		return false, &cp, nil
	}
	cp := *a
	c.assignments[k] = &cp
	out := cp
	return true, &out, nil
}

func setupCache(t *testing.T) (*AssignmentStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingStore{assignments: make(map[string]*domain.Assignment)}
	return NewAssignmentStore(inner, client, time.Minute), inner, mr
}

func seeded() *domain.Assignment {
	return &domain.Assignment{
		ExperimentID: "exp-1", UserID: "u1", VariantID: "v2",
		AssignedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFindPopulatesAndServesFromCache(t *testing.T) {
	store, inner, _ := setupCache(t)
	inner.assignments["exp-1/u1"] = seeded()

	a, err := store.Find(context.Background(), "exp-1", "u1")
	if err != nil {
		t.Fatalf("first Find: %v", err)
	}
	if a.VariantID != "v2" {
		t.Errorf("variant = %s, want v2", a.VariantID)
	}
	if inner.finds != 1 {
		t.Fatalf("inner finds = %d, want 1", inner.finds)
	}

	// Second read is served from Redis.
	a2, err := store.Find(context.Background(), "exp-1", "u1")
	if err != nil {
		t.Fatalf("second Find: %v", err)
	}
	if inner.finds != 1 {
		t.Errorf("inner finds = %d after cached read, want still 1", inner.finds)
	}
	if a2.VariantID != a.VariantID || !a2.AssignedAt.Equal(a.AssignedAt) {
		t.Errorf("cached row diverges: %+v vs %+v", a2, a)
	}
}

func TestFindMissNotCached(t *testing.T) {
	store, inner, _ := setupCache(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Find(context.Background(), "exp-1", "ghost"); err != assignment.ErrNotFound {
			t.Fatalf("Find: err = %v, want ErrNotFound", err)
		}
	}
	// Negative results must reach the store every time.
	if inner.finds != 3 {
		t.Errorf("inner finds = %d, want 3 (absence is never cached)", inner.finds)
	}
}

func TestInsertIfAbsentWarmsCache(t *testing.T) {
	store, inner, _ := setupCache(t)

	created, winner, err := store.InsertIfAbsent(context.Background(), seeded())
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}

	if _, err := store.Find(context.Background(), "exp-1", "u1"); err != nil {
		t.Fatalf("Find after insert: %v", err)
	}
	if inner.finds != 0 {
		t.Errorf("inner finds = %d, want 0 (insert warmed the cache)", inner.finds)
	}
	if winner.VariantID != "v2" {
		t.Errorf("winner variant = %s, want v2", winner.VariantID)
	}
}

func TestRedisDownDegradesToStore(t *testing.T) {
	store, inner, mr := setupCache(t)
	inner.assignments["exp-1/u1"] = seeded()
	mr.Close()

	a, err := store.Find(context.Background(), "exp-1", "u1")
	if err != nil {
		t.Fatalf("Find with redis down: %v", err)
	}
	if a.VariantID != "v2" {
		t.Errorf("variant = %s, want v2", a.VariantID)
	}
	if inner.finds != 1 {
		t.Errorf("inner finds = %d, want 1", inner.finds)
	}
}

func TestCorruptCacheEntryFallsThrough(t *testing.T) {
	store, inner, mr := setupCache(t)
	inner.assignments["exp-1/u1"] = seeded()
	mr.Set("assignment:exp-1:u1", "not json")

	a, err := store.Find(context.Background(), "exp-1", "u1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if a.VariantID != "v2" || inner.finds != 1 {
		t.Errorf("corrupt entry should fall through to store, got %+v finds=%d", a, inner.finds)
	}
}
