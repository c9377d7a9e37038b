package routing

import (
	"sync"
	"time"

	cache "github.com/unkn0wn-root/kioshun"
)

// filter suppresses duplicate envelopes for the lifetime of their cache
// entry. Relayed messages can reach a node along several routes; the filter
// keeps the node from handling or forwarding the same envelope twice.
type filter struct {
	// The cache has no atomic get-or-set, so the check and the record are
	// serialized here. RPCs are processed concurrently.
	mtx  sync.Mutex
	seen *cache.InMemoryCache[string, struct{}]
}

func newFilter(size int, ttl time.Duration) *filter {
	return &filter{
		seen: cache.New[string, struct{}](cache.Config{
			MaxSize:         int64(size),
			ShardCount:      16,
			CleanupInterval: ttl,
			DefaultTTL:      ttl,
			EvictionPolicy:  cache.LRU,
		}),
	}
}

// duplicate records the hash and reports whether it had been seen before.
// At most one caller gets false for a given hash within the TTL.
func (f *filter) duplicate(hash string) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.seen.Exists(hash) {
		return true
	}
	f.seen.Set(hash, struct{}{}, cache.DefaultExpiration)
	return false
}

func (f *filter) close() {
	f.seen.Close()
}
