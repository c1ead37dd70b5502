package instance

import "sync/atomic"

// unsynchronized checks the slot and builds without any mutual exclusion.
//
// This is the textbook unsafe lazy singleton and is kept deliberately flawed:
// check and publish are two separate steps, so goroutines that all see an
// empty slot each run the constructor and each return their own instance.
// The last store wins for later callers. The slot is an atomic.Pointer only so
// the flaw stays a logical race instead of a memory-model data race.
type unsynchronized[E, T any] struct {
	core[E, T]
	slot atomic.Pointer[T]
}

func (p *unsynchronized[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *unsynchronized[E, T]) GetWith(env *E) (*T, error) {
	if v := p.slot.Load(); v != nil {
		p.hit()
		return v, nil
	}
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

func (p *unsynchronized[E, T]) Reset() {
	p.slot.Store(nil)
	p.state.Store(int32(Unconstructed))
}
