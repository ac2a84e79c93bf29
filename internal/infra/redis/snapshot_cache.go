package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

// SnapshotCache caches full quiz snapshots in Redis as JSON values and falls
// back to a loader on cache miss. Snapshots are stored as:
// SET quiz:{quizID}:snapshot {json} EX ttl
type SnapshotCache struct {
	client *redis.Client
	loader memory.ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewSnapshotCache(client *redis.Client, loader memory.ContentLoader, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (c *SnapshotCache) GetQuizSnapshot(ctx context.Context, quizID string) (domain.QuizSnapshot, error) {
	key := c.snapshotKey(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var snapshot domain.QuizSnapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot, nil
		}
		// Corrupt entry; fall through and reload.
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var snapshot domain.QuizSnapshot
			if err := json.Unmarshal(raw, &snapshot); err == nil {
				return snapshot, nil
			}
		}

		snapshot, err := c.loader.GetQuizSnapshot(ctx, quizID)
		if err != nil {
			return domain.QuizSnapshot{}, err
		}

		if raw, err := json.Marshal(snapshot); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
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

func (c *SnapshotCache) snapshotKey(quizID string) string {
	return "quiz:" + quizID + ":snapshot"
}

func (c *SnapshotCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
