package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a small in-process read-through cache. It fronts the immutable
// plan catalog: plans never change after creation, so a short TTL only
// bounds memory, not staleness of prices.
type Cache struct {
	store *gocache.Cache
}

const (
	DefaultExpiration = 5 * time.Minute
	CleanupInterval   = 10 * time.Minute
)

func New() *Cache {
	return &Cache{store: gocache.New(DefaultExpiration, CleanupInterval)}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *Cache) Set(key string, value interface{}) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}
