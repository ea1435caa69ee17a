package tgc

import (
	"sync"
	"time"
)

// CachedValue memoizes the result of an expensive getter for up to maxAge,
// the Go generic counterpart of the original CachedValue<ValueType>
// template.
type CachedValue[T any] struct {
	mu        sync.Mutex
	getter    func() (T, error)
	maxAge    time.Duration
	clock     Clock
	value     T
	hasValue  bool
	timestamp int64
}

// NewCachedValue builds a CachedValue that calls getter at most once per
// maxAge, using clock to decide when the cached value has gone stale.
func NewCachedValue[T any](getter func() (T, error), maxAge time.Duration, clock Clock) *CachedValue[T] {
	return &CachedValue[T]{getter: getter, maxAge: maxAge, clock: clock}
}

// Get returns the cached value, refreshing it via the getter first if it
// has never been set or has exceeded maxAge.
func (c *CachedValue[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.NowSecs()
	age := time.Duration(now-c.timestamp) * time.Second

	if !c.hasValue || age >= c.maxAge {
		v, err := c.getter()
		if err != nil {
			var zero T
			return zero, err
		}
		c.value = v
		c.hasValue = true
		c.timestamp = now
	}

	return c.value, nil
}
