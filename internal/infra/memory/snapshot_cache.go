package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quizhost-service/internal/domain"
)

// ContentLoader fetches quiz snapshots from a backing store (e.g., Postgres).
type ContentLoader interface {
	GetQuizSnapshot(ctx context.Context, quizID string) (domain.QuizSnapshot, error)
	QuestionCount(ctx context.Context, quizID string) (int, error)
}

// SnapshotCache caches quiz snapshots with TTL to avoid repeated store hits
// while many sessions start against the same quiz.
type SnapshotCache struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedSnapshot
}

type cachedSnapshot struct {
	snapshot  domain.QuizSnapshot
	expiresAt time.Time
}

func NewSnapshotCache(loader ContentLoader, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedSnapshot),
	}
}

func (c *SnapshotCache) GetQuizSnapshot(ctx context.Context, quizID string) (domain.QuizSnapshot, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.snapshot.Clone(), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.snapshot, nil
		}
		c.mu.RUnlock()

		snapshot, err := c.loader.GetQuizSnapshot(ctx, quizID)
		if err != nil {
			return domain.QuizSnapshot{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedSnapshot{
			snapshot:  snapshot,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return snapshot, nil
	})
	if err != nil {
		return domain.QuizSnapshot{}, err
	}
	return result.(domain.QuizSnapshot).Clone(), nil
}

func (c *SnapshotCache) QuestionCount(ctx context.Context, quizID string) (int, error) {
	snapshot, err := c.GetQuizSnapshot(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return len(snapshot.Questions), nil
}

func (c *SnapshotCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations; the top-level rand
	// functions are safe from concurrent singleflight callbacks
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
