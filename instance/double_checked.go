package instance

import "sync/atomic"

// doubleChecked takes the lock only while the slot is empty.
//
// Memory ordering: slot is an atomic.Pointer, so Store is a release and Load
// an acquire. A goroutine whose fast-path Load returns non-nil therefore sees
// every write the constructor made. The second Load under the lock stops
// goroutines queued behind the builder from constructing again.
type doubleChecked[E, T any] struct {
	core[E, T]
	slot atomic.Pointer[T]
}

func (p *doubleChecked[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *doubleChecked[E, T]) GetWith(env *E) (*T, error) {
	// fast path: no lock once published
	if v := p.slot.Load(); v != nil {
		p.hit()
		return v, nil
	}

	p.lock()
	defer p.mu.Unlock()

	if v := p.slot.Load(); v != nil {
		p.hit()
		return v, nil
	}
	v, err := p.build(env)
	if err != nil {
		return nil, err
	}
	p.slot.Store(v)
	p.ready()
	return v, nil
}

func (p *doubleChecked[E, T]) Reset() {
	p.mu.Lock()
	p.slot.Store(nil)
	p.state.Store(int32(Unconstructed))
	p.mu.Unlock()
}
