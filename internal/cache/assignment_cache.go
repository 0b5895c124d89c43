// Package cache provides a Redis read-through layer over the assignment
// store.
//
// Assignments are immutable once created, which makes them ideal cache
// material: a cached row can never go stale. The cache is strictly an
// optimization; any Redis failure degrades to the underlying store and is
// logged, never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/assignment"
)

// DefaultTTL bounds cache residency. Assignments never change, so the TTL
// exists only to cap memory, not for coherence.
const DefaultTTL = 24 * time.Hour

// AssignmentStore decorates an assignment.Store with a Redis read-through
// cache. It implements assignment.Store itself, so services are wired the
// same way with or without Redis.
type AssignmentStore struct {
	inner assignment.Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewAssignmentStore wraps inner with a Redis cache. A zero ttl selects
// DefaultTTL.
func NewAssignmentStore(inner assignment.Store, rdb *redis.Client, ttl time.Duration) *AssignmentStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AssignmentStore{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(experimentID, userID string) string {
	return fmt.Sprintf("assignment:%s:%s", experimentID, userID)
}

// Find checks Redis first and falls through to the inner store on a miss,
// populating the cache on the way back. Only found assignments are cached;
// a negative result is never cached because the user may be assigned at
// any moment.
func (s *AssignmentStore) Find(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	key := cacheKey(experimentID, userID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var a domain.Assignment
		if jsonErr := json.Unmarshal(data, &a); jsonErr == nil {
			return &a, nil
		}
		// Unreadable entry: drop it and fall through.
		s.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[cache.AssignmentStore] redis get %s: %v (falling through)", key, err)
	}

	a, err := s.inner.Find(ctx, experimentID, userID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, a)
	return a, nil
}

// InsertIfAbsent delegates to the inner store and caches whichever row won.
func (s *AssignmentStore) InsertIfAbsent(ctx context.Context, a *domain.Assignment) (bool, *domain.Assignment, error) {
	created, winner, err := s.inner.InsertIfAbsent(ctx, a)
	if err != nil {
		return created, winner, err
	}
	if winner != nil {
		s.set(ctx, cacheKey(winner.ExperimentID, winner.UserID), winner)
	}
	return created, winner, nil
}

func (s *AssignmentStore) set(ctx context.Context, key string, a *domain.Assignment) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("[cache.AssignmentStore] redis set %s: %v", key, err)
	}
}
