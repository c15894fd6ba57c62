package inspector

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	// Introspection results are small; 16 MiB is plenty.
	defaultCacheMaxCost     = 16 << 20
	defaultCacheNumCounters = 10_000
	defaultCacheBufferItems = 64
)

// resultCache keeps introspection results for a short TTL
type resultCache struct {
	store *ristretto.Cache
	ttl   time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		return &resultCache{}
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultCacheNumCounters,
		MaxCost:     defaultCacheMaxCost,
		BufferItems: defaultCacheBufferItems,
	})
	if err != nil {
		// static config
		panic(err)
	}
	return &resultCache{store: store, ttl: ttl}
}

func (c *resultCache) get(key string) (any, bool) {
	if c.store == nil {
		return nil, false
	}
	return c.store.Get(key)
}

func (c *resultCache) set(key string, value any, cost int64) {
	if c.store == nil {
		return
	}
	if c.store.SetWithTTL(key, value, max(cost, 1), c.ttl) {
		// sets are asynchronous
		c.store.Wait()
	}
}

func (c *resultCache) clear() {
	if c.store != nil {
		c.store.Clear()
	}
}

func (c *resultCache) close() {
	if c.store != nil {
		c.store.Close()
	}
}

// cached returns the value under key, computing and storing it on a miss.
func cached[T any](c *resultCache, key string, load func() (T, int64, error)) (T, error) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, cost, err := load()
	if err != nil {
		return value, err
	}
	c.set(key, value, cost)
	return value, nil
}

func estimateRowsCost(rows []map[string]any) int64 {
	var total int64
	for _, row := range rows {
		total += int64(len(row) * 16)
		for key, value := range row {
			total += int64(len(key)) + estimateValueCost(value)
		}
	}
	return max(total, 1)
}

func estimateValueCost(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		return int64(len(val))
	case []byte:
		return int64(len(val))
	case bool:
		return 1
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float64:
		return 8
	case float32:
		return 4
	case time.Time:
		return 16
	case map[string]any:
		var size int64
		for key, nested := range val {
			size += int64(len(key)) + estimateValueCost(nested)
		}
		return size
	default:
		return int64(len(fmt.Sprintf("%v", val)))
	}
}
