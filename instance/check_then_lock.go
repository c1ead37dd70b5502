package instance

import "sync/atomic"

// checkThenLock checks the slot outside the lock, then takes the lock and
// builds WITHOUT re-checking. It is the half-way step towards double-checked
// locking and is kept that way on purpose: construction itself is serialized,
// but every goroutine that saw the empty slot before the first publish waits
// its turn on the lock and then builds again, replacing the slot.
type checkThenLock[E, T any] struct {
	core[E, T]
	slot atomic.Pointer[T]
}

func (p *checkThenLock[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *checkThenLock[E, T]) GetWith(env *E) (*T, error) {
	if v := p.slot.Load(); v != nil {
		p.hit()
		return v, nil
	}

	p.lock()
	defer p.mu.Unlock()
	// no inner check
	v, err := p.build(env)
	if err != nil {
		// a racing builder may already have published
		if p.slot.Load() != nil {
			p.ready()
		}
		return nil, err
	}
	p.slot.Store(v)
	p.ready()
	return v, nil
}

func (p *checkThenLock[E, T]) Reset() {
	p.mu.Lock()
	p.slot.Store(nil)
	p.state.Store(int32(Unconstructed))
	p.mu.Unlock()
}
