package mem_cache

import (
	"sync/atomic"
	"time"

	"github.com/vpetersson/ipgeolocation/pkg/concurrent_lru"
)

const (
	shardNum               = 64
	defaultCleanerInterval = time.Minute
)

// MemCache is an in-memory sharded LRU cache with per-entry TTL.
// Expired entries are dropped lazily on Get and swept periodically
// by a background cleaner.
type MemCache struct {
	closed           uint32
	closeCleanerChan chan struct{}
	lru              *concurrent_lru.ShardedLRU[*elem]
}

type elem struct {
	v      []byte
	expire int64 // Unix nano
}

// NewMemCache returns a MemCache with approximately size entries of
// capacity. A cleanerInterval <= 0 disables the background cleaner.
func NewMemCache(size int, cleanerInterval time.Duration) *MemCache {
	sizePerShard := size / shardNum
	if sizePerShard < 16 {
		sizePerShard = 16
	}
	c := &MemCache{
		closeCleanerChan: make(chan struct{}),
		lru:              concurrent_lru.NewShardedLRU[*elem](shardNum, sizePerShard, nil),
	}

	if cleanerInterval > 0 {
		go c.startCleaner(cleanerInterval)
	}
	return c
}

func (c *MemCache) isClosed() bool {
	return atomic.LoadUint32(&c.closed) != 0
}

func (c *MemCache) Close() error {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		close(c.closeCleanerChan)
	}
	return nil
}

func (c *MemCache) Get(key string) (v []byte, ok bool) {
	if c.isClosed() {
		return nil, false
	}

	e, found := c.lru.Get(key)
	if !found {
		return nil, false
	}

	if time.Now().UnixNano() >= e.expire {
		c.lru.Del(key)
		return nil, false
	}
	return e.v, true
}

func (c *MemCache) Store(key string, v []byte, ttl time.Duration) {
	if c.isClosed() || ttl <= 0 {
		return
	}

	// Copy v so the backend owns the buffer.
	buf := make([]byte, len(v))
	copy(buf, v)

	c.lru.Add(key, &elem{
		v:      buf,
		expire: time.Now().Add(ttl).UnixNano(),
	})
}

func (c *MemCache) Remove(key string) {
	if c.isClosed() {
		return
	}
	c.lru.Del(key)
}

func (c *MemCache) startCleaner(interval time.Duration) {
	if interval <= 0 {
		interval = defaultCleanerInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCleanerChan:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			c.lru.Clean(func(_ string, e *elem) bool {
				return e.expire <= now
			})
		}
	}
}

func (c *MemCache) Len() int {
	return c.lru.Len()
}
