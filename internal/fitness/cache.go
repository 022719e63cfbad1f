package fitness

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"chromapaint/internal/genotype"
)

// CachedEvaluator memoises scores by chromosome fingerprint. Elite clones and
// crossovers that reproduce a parent hit the cache instead of re-rendering.
type CachedEvaluator struct {
	inner Evaluator
	cache *gocache.Cache
}

func NewCachedEvaluator(inner Evaluator, ttl time.Duration) *CachedEvaluator {
	cleanup := ttl * 2
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &CachedEvaluator{inner: inner, cache: gocache.New(ttl, cleanup)}
}

func (e *CachedEvaluator) Evaluate(c *genotype.Chromosome) float64 {
	key := genotype.Fingerprint(c)
	if v, ok := e.cache.Get(key); ok {
		return v.(float64)
	}
	score := e.inner.Evaluate(c)
	e.cache.SetDefault(key, score)
	return score
}

func (e *CachedEvaluator) Len() int {
	return e.cache.ItemCount()
}

func (e *CachedEvaluator) Flush() {
	e.cache.Flush()
}
