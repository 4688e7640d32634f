// Package plancache memoizes search plans per question in process memory.
package plancache

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/supportrag/internal/domain/plan"
)

// Cache maps a normalized question to its plan. Safe for concurrent use.
type Cache struct {
	c *cache.Cache
}

// New creates a cache whose entries live for ttl and are purged every cleanup interval.
func New(ttl, cleanup time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, cleanup)}
}

// Get returns the cached plan for question.
func (c *Cache) Get(question string) (plan.Plan, bool) {
	v, ok := c.c.Get(key(question))
	if !ok {
		return plan.Plan{}, false
	}
	p, ok := v.(plan.Plan)
	return p, ok
}

// Put stores a plan with the default expiration.
func (c *Cache) Put(question string, p plan.Plan) {
	c.c.Set(key(question), p, cache.DefaultExpiration)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.c.ItemCount() }

// key folds case and whitespace so trivially different phrasings share a plan.
func key(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}
