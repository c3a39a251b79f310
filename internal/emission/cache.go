package emission

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/coocood/freecache"
	"k8s.io/klog/v2"
)

// Cache remembers predictions per (category, weight). The model is fixed
// for the life of the process, so an entry never goes stale unless a TTL
// is set.
type Cache struct {
	store      *freecache.Cache
	ttlSeconds int
}

// NewCache allocates sizeBytes up front. freecache enforces a 512KB floor.
func NewCache(sizeBytes int, ttl time.Duration) *Cache {
	return &Cache{
		store:      freecache.NewCache(sizeBytes),
		ttlSeconds: int(ttl / time.Second),
	}
}

func (c *Cache) Get(label string, weight float64) (float64, bool) {
	value, err := c.store.Get(cacheKey(label, weight))
	if err != nil || len(value) != 8 {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(value)), true
}

func (c *Cache) Set(label string, weight float64, emission float64) {
	value := make([]byte, 8)
	binary.LittleEndian.PutUint64(value, math.Float64bits(emission))
	if err := c.store.Set(cacheKey(label, weight), value, c.ttlSeconds); err != nil {
		klog.V(4).Infof("Skipping cache entry for %s: %v", label, err)
	}
}

func (c *Cache) Len() int64 {
	return c.store.EntryCount()
}

func cacheKey(label string, weight float64) []byte {
	key := make([]byte, 0, len(label)+9)
	key = append(key, label...)
	key = append(key, 0)
	return binary.LittleEndian.AppendUint64(key, math.Float64bits(weight))
}
