// Package memo builds a value once per owner and hands the same value back on
// every later call.
//
// A Wrapper gets a random identifier when it is created. The owner of the
// memoized values, typically one route or interceptor, holds a Cache; the
// first Get for a Wrapper on a Cache runs the factory and stores the result
// under the Wrapper's identifier. Concurrent first calls share a single
// factory run. A factory error is returned to every waiter and nothing is
// stored, so the next call tries again. A caller giving up on its context
// does not abort the factory run the others are waiting on.
package memo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Factory builds the value a Wrapper memoizes.
type Factory[T any] func(ctx context.Context) (T, error)

// Cache holds the memoized values of one owner. The zero value is ready to
// use. A Cache must not be copied after first use.
type Cache struct {
	mu     sync.RWMutex
	values map[string]any
	group  singleflight.Group
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) load(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[id]
	return v, ok
}

func (c *Cache) store(id string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[id] = v
}

// Len reports how many values are memoized.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Forget drops the value stored under id, if any.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, id)
}

// Wrapper memoizes the result of a Factory per Cache.
type Wrapper[T any] struct {
	id      string
	factory Factory[T]
}

// Wrap returns a Wrapper for factory with a freshly generated identifier.
func Wrap[T any](factory Factory[T]) *Wrapper[T] {
	return &Wrapper[T]{
		id:      uuid.NewString(),
		factory: factory,
	}
}

// ID is the key the Wrapper's value is stored under.
func (w *Wrapper[T]) ID() string {
	return w.id
}

// Get returns the value memoized in cache, running the factory if there is
// none yet. The factory runs detached from the cancellation of whichever
// caller started it; each caller stops waiting when its own ctx is done.
func (w *Wrapper[T]) Get(ctx context.Context, cache *Cache) (T, error) {
	var zero T
	if v, ok := cache.load(w.id); ok {
		return v.(T), nil
	}

	flight := cache.group.DoChan(w.id, func() (any, error) {
		// Another flight may have stored the value between load and DoChan.
		if v, ok := cache.load(w.id); ok {
			return v, nil
		}

		v, err := w.factory(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		cache.store(w.id, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("memo %s: %w", w.id, ctx.Err())
	case res := <-flight:
		if res.Err != nil {
			return zero, fmt.Errorf("memo %s: %w", w.id, res.Err)
		}
		return res.Val.(T), nil
	}
}
