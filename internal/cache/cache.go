// Package cache wraps dgraph-io/ristretto as an in-process byte cache shared by
// the completion client and the quality-assessment step.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache bounded by maxCostBytes of stored values.
func New(maxCostBytes int64) (*Cache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = 32 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, found := c.c.Get(key)
	if !found {
		return nil, false
	}
	return val, true
}

// Set stores value with ttl. Writes are buffered; call Wait when a following
// read must observe them.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
}

func (c *Cache) Wait() {
	if c == nil {
		return
	}
	c.c.Wait()
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.c.Close()
}
