package cache

import (
	"hash/fnv"
	"sync"
)

const shardCount = 16

type cardShard struct {
	mu      sync.RWMutex
	entries map[string]float64
}

// CardinalityCache is a sharded-lock map from structural fingerprint
// (§4.10) to an estimated row count, letting concurrent DPccp workers
// (§4.9's Top-K search explores many subplans) read and write estimates
// without serializing on one global mutex, unlike PlanCache which is read
// far less often per query (§5, §9).
type CardinalityCache struct {
	shards [shardCount]*cardShard
}

func NewCardinalityCache(_ int) *CardinalityCache {
	c := &CardinalityCache{}
	for i := range c.shards {
		c.shards[i] = &cardShard{entries: make(map[string]float64)}
	}
	return c
}

func (c *CardinalityCache) shardFor(fingerprint string) *cardShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fingerprint))
	return c.shards[h.Sum32()%shardCount]
}

// Get returns the cached cardinality estimate for fingerprint, per the
// Cached estimator variant of §4.10.
func (c *CardinalityCache) Get(fingerprint string) (float64, bool) {
	shard := c.shardFor(fingerprint)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	v, ok := shard.entries[fingerprint]
	return v, ok
}

// Put records an estimate under fingerprint, used by the ReadAndUpdate
// cache-write-back mode of §4.10.
func (c *CardinalityCache) Put(fingerprint string, estimate float64) {
	shard := c.shardFor(fingerprint)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.entries[fingerprint] = estimate
}

func (c *CardinalityCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}
