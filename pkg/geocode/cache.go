package geocode

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// resultCache memoizes address -> result in process memory, including
// unmatched results so a hopeless address is not re-sent until it expires.
type resultCache struct {
	c *gocache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{c: gocache.New(ttl, 2*ttl)}
}

// cacheKey normalizes an address for lookup: lower case, single spaces.
func cacheKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func (rc *resultCache) get(key string) (*Result, bool) {
	v, ok := rc.c.Get(key)
	if !ok {
		return nil, false
	}
	r, ok := v.(Result)
	if !ok {
		return nil, false
	}
	return &r, true
}

// set stores a copy so callers cannot mutate cached entries.
func (rc *resultCache) set(key string, r *Result) {
	rc.c.SetDefault(key, *r)
}

func (rc *resultCache) len() int {
	return rc.c.ItemCount()
}
