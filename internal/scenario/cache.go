package scenario

import (
	"context"
	"sync"
	"time"
)

// CachingProvider memoizes Load results for a TTL. The engine may reload a
// scenario several times per request; this keeps that cheap without the
// engine knowing about it.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	scn     *Scenario
	expires time.Time
}

func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{inner: inner, ttl: ttl, entries: map[string]cacheEntry{}}
}

func (c *CachingProvider) Load(ctx context.Context, topic string) (*Scenario, error) {
	c.mu.RLock()
	e, ok := c.entries[topic]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expires) {
		return e.scn, nil
	}

	s, err := c.inner.Load(ctx, topic)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[topic] = cacheEntry{scn: s, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return s, nil
}

// Topics is not cached: listings are cheap and must reflect new content.
func (c *CachingProvider) Topics(ctx context.Context) ([]string, error) {
	return c.inner.Topics(ctx)
}
