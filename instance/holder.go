package instance

import (
	"sync/atomic"

	"github.com/IvanBrykalov/singleton/internal/once"
	"github.com/IvanBrykalov/singleton/policy"
)

// lazyHolder defers construction to the first access through a one-shot
// guard, then serves every later access with a single atomic load.
//
// The guard latches only on success, so a failed attempt leaves the holder
// Unconstructed and the next access tries again. Published values go through
// slot (release store / acquire load).
type lazyHolder[E, T any] struct {
	core[E, T]
	guard once.Once
	slot  atomic.Pointer[T]
}

func (p *lazyHolder[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *lazyHolder[E, T]) GetWith(env *E) (*T, error) {
	if v := p.slot.Load(); v != nil {
		p.hit()
		return v, nil
	}

	built := false
	err := p.guard.Do(func() error {
		v, err := p.build(env)
		if err != nil {
			return err
		}
		p.slot.Store(v)
		p.ready()
		built = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !built {
		p.hit()
	}
	return p.slot.Load(), nil
}

func (p *lazyHolder[E, T]) Reset() {
	p.slot.Store(nil)
	p.guard.Reset()
	p.state.Store(int32(Unconstructed))
}

// Holder is a package-level lazy singleton with no construction Env:
//
//	var registry = instance.Lazy(func() (*Registry, error) {
//	    return NewRegistry(), nil
//	})
//
//	r, err := registry.Get()
//
// The constructor does not run until the first Get. The zero Holder is not
// usable; create one with Lazy or LazyWith.
type Holder[T any] struct {
	p *lazyHolder[struct{}, T]
}

// Lazy returns a Holder for ctor with default options.
func Lazy[T any](ctor func() (*T, error)) *Holder[T] {
	return LazyWith(Options[struct{}, T]{
		Constructor: func(*struct{}) (*T, error) { return ctor() },
	})
}

// LazyWith returns a Holder configured by opt. opt.Policy is ignored.
// It panics when opt.Constructor is nil.
func LazyWith[T any](opt Options[struct{}, T]) *Holder[T] {
	if opt.Constructor == nil {
		panic(ErrNoConstructor)
	}
	opt.Policy = policy.Holder
	p := &lazyHolder[struct{}, T]{}
	p.init(opt)
	return &Holder[T]{p: p}
}

// Get returns the instance, constructing it on the first successful call.
func (h *Holder[T]) Get() (*T, error) { return h.p.Get() }

// MustGet is Get that panics on a construction error.
func (h *Holder[T]) MustGet() *T {
	v, err := h.p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// State reports the holder's lifecycle position.
func (h *Holder[T]) State() State { return h.p.State() }

// Stats returns the holder's counters.
func (h *Holder[T]) Stats() Stats { return h.p.Stats() }

// Reset drops the instance. For tests only; must not race with Get.
func (h *Holder[T]) Reset() { h.p.Reset() }
