// Package singleflight coalesces concurrent calls that share a key.
package singleflight

import (
	"context"
	"fmt"
	"sync"
)

// Group runs fn at most once per key among overlapping callers; the others
// wait for the leader's result.
//
// Concurrency notes:
//   - The first caller for a key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - A panic in fn is turned into an error for every waiter, and the key is
//     released, so nobody blocks forever.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
	dups int
}

// Do runs fn once for the given key. shared reports whether the result was
// handed to more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, true, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(c, key, fn)

	g.mu.Lock()
	shared = c.dups > 0
	g.mu.Unlock()
	return c.val, shared, c.err
}

// run executes fn, publishes the result and removes the in-flight marker,
// even when fn panics.
func (g *Group[K, V]) run(c *call[V], key K, fn func() (V, error)) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero V
			c.val, c.err = zero, fmt.Errorf("singleflight: panic: %v", rec)
		}
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn()
}
