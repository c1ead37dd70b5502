// Package once provides a one-shot guard that only latches on success.
package once

import (
	"sync"
	"sync/atomic"
)

// Once runs a function until it succeeds once. Unlike sync.Once, a failed
// attempt leaves the guard open so the next caller tries again.
//
// Concurrency notes:
//   - Callers that arrive while an attempt is running block on mu and then
//     observe either the latched success or run their own attempt.
//   - done is stored after f returns nil, so a caller that sees done == 1
//     also sees every write f made.
type Once struct {
	done atomic.Uint32
	mu   sync.Mutex
}

// Done reports whether an attempt has succeeded.
func (o *Once) Done() bool { return o.done.Load() == 1 }

// Do calls f unless a previous call succeeded. It returns f's error, or nil
// when the guard was already latched.
func (o *Once) Do(f func() error) error {
	if o.done.Load() == 1 {
		return nil
	}
	return o.doSlow(f)
}

func (o *Once) doSlow(f func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done.Load() == 1 {
		return nil
	}
	if err := f(); err != nil {
		return err
	}
	o.done.Store(1)
	return nil
}

// Reset reopens the guard. Not safe concurrently with Do.
func (o *Once) Reset() { o.done.Store(0) }
