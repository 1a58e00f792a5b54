package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// visitorRepo keeps one Redis set per article per UTC day
type visitorRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVisitorRepo creates a Redis-backed visitor repository. Keys expire after ttl.
func NewVisitorRepo(client *redis.Client, ttl time.Duration) VisitorRepository {
	return &visitorRepo{client: client, ttl: ttl}
}

// visitorKey returns the set key for an article's visitors on a day
func visitorKey(articleID string, day time.Time) string {
	return fmt.Sprintf("article:%s:visitors:%s", articleID, day.UTC().Format("20060102"))
}

// MarkVisit records the visitor and reports whether this is their first visit that day
func (r *visitorRepo) MarkVisit(ctx context.Context, articleID, visitorID string, day time.Time) (bool, error) {
	key := visitorKey(articleID, day)

	pipe := r.client.TxPipeline()
	added := pipe.SAdd(ctx, key, visitorID)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record visitor: %w", err)
	}

	return added.Val() == 1, nil
}
