package cache

import (
	"context"
	"sync"

	"watchwhat/internal/model"
)

// memorySummaryCache is a map-backed SummaryCache for tests and for running
// without Redis. Entries never expire.
type memorySummaryCache struct {
	mu        sync.RWMutex
	summaries map[string]model.SessionSummary
}

func NewMemorySummaryCache() SummaryCache {
	return &memorySummaryCache{summaries: make(map[string]model.SessionSummary)}
}

func (c *memorySummaryCache) Set(ctx context.Context, summary *model.SessionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[summary.SessionID] = *summary
	return nil
}

func (c *memorySummaryCache) Get(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	summary, ok := c.summaries[sessionID]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

func (c *memorySummaryCache) Delete(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries, sessionID)
	return nil
}
