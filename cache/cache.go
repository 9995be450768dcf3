package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
)

var DefaultVersionTTL = 10 * time.Minute

type Cache struct {
	Versions VersionsCache
}

func New() *Cache {
	versionsCache := ccache.New(
		ccache.Configure[string]().
			MaxSize(16).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		Versions: VersionsCache{
			c:   versionsCache,
			mux: sync.Mutex{},
		},
	}
}

// VersionsCache holds the version strings reported by external tools, keyed
// by binary. Failed probes are not cached.
type VersionsCache struct {
	c   *ccache.Cache[string]
	mux sync.Mutex
}

func (c *VersionsCache) Fetch(k string, ttl time.Duration, fetch func() (string, error)) (string, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return "", fmt.Errorf("fetch version: %w", err)
	}

	return v.Value(), nil
}

func (c *VersionsCache) Delete(k string) {
	c.c.Delete(k)
}
