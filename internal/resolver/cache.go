package resolver

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// DefaultCacheSize is the number of plans Cached keeps when no size is
// configured. The full matrix is nine points.
const DefaultCacheSize = 64

// Cached memoizes plans by point. Failed resolutions are not cached, so a
// conflict is re-reported on every call. Safe for concurrent use.
type Cached struct {
	inner Planner
	plans *lru.Cache[model.ConfigurationPoint, *Plan]
}

// NewCached wraps inner with an LRU of the given size. A non-positive size
// selects DefaultCacheSize.
func NewCached(inner Planner, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	plans, err := lru.New[model.ConfigurationPoint, *Plan](size)
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}
	return &Cached{inner: inner, plans: plans}, nil
}

// Resolve returns the cached plan for p, resolving it on a miss.
func (c *Cached) Resolve(p model.ConfigurationPoint) (*Plan, error) {
	if plan, ok := c.plans.Get(p); ok {
		return plan, nil
	}
	plan, err := c.inner.Resolve(p)
	if err != nil {
		return nil, err
	}
	c.plans.Add(p, plan)
	return plan, nil
}

// Len reports how many plans are cached.
func (c *Cached) Len() int {
	return c.plans.Len()
}
