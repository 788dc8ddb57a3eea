package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"watchwhat/internal/model"
)

const summaryTTL = 10 * time.Minute

// SummaryCache holds the per-session status summary. It is written after
// every committed mutation and read by the status endpoint; a miss falls
// back to recomputing from the store.
type SummaryCache interface {
	Set(ctx context.Context, summary *model.SessionSummary) error
	// Get returns (nil, nil) on a cache miss.
	Get(ctx context.Context, sessionID string) (*model.SessionSummary, error)
	Delete(ctx context.Context, sessionID string) error
}

type summaryCache struct {
	client *redis.Client
}

func NewSummaryCache(client *redis.Client) SummaryCache {
	return &summaryCache{client: client}
}

func (c *summaryCache) Set(ctx context.Context, summary *model.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "session:summary:"+summary.SessionID, data, summaryTTL).Err()
}

func (c *summaryCache) Get(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	data, err := c.client.Get(ctx, "session:summary:"+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var summary model.SessionSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *summaryCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "session:summary:"+sessionID).Err()
}
