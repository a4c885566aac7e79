package service

import (
	"sort"
	"sync"
	"time"

	"github.com/smallbiznis/factorylicense/internal/changefeed"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
)

// cache is the process-local license view. Entries are copies; callers never
// share a *License with the map.
type cache struct {
	mu       sync.RWMutex
	licenses map[string]licensedomain.License
}

func newCache() *cache {
	return &cache{licenses: make(map[string]licensedomain.License)}
}

func (c *cache) get(id string) (licensedomain.License, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.licenses[id]
	return l, ok
}

// put keeps the newer of the cached and incoming versions.
func (c *cache) put(l licensedomain.License) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.licenses[l.ID]; ok && cur.Version > l.Version {
		return
	}
	c.licenses[l.ID] = l
}

func (c *cache) remove(id string) {
	c.mu.Lock()
	delete(c.licenses, id)
	c.mu.Unlock()
}

func (c *cache) apply(change changefeed.Change) {
	switch change.Type {
	case changefeed.ChangeAdded, changefeed.ChangeModified:
		if change.License != nil {
			c.put(*change.License)
		}
	case changefeed.ChangeRemoved:
		c.remove(change.LicenseID)
	}
}

func (c *cache) active(now time.Time) []licensedomain.License {
	c.mu.RLock()
	out := make([]licensedomain.License, 0, len(c.licenses))
	for _, l := range c.licenses {
		if l.IsActiveAt(now) {
			out = append(out, l)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.licenses)
}
