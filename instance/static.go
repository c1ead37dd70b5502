package instance

import "github.com/IvanBrykalov/singleton/policy"

// static is built inside New, before the provider is handed to anyone, so
// reads need no synchronization. Declaring it as a package-level variable
// (see MustNew) ties construction to package initialization, which the Go
// runtime runs on a single goroutine.
type static[E, T any] struct {
	core[E, T]
	v *T // written once in New, read-only afterwards
}

func newStatic[E, T any](opt Options[E, T]) (*static[E, T], error) {
	p := &static[E, T]{}
	p.init(opt)

	if opt.Policy == policy.StaticInit {
		if err := p.initialize(opt.Env); err != nil {
			return nil, err
		}
		return p, nil
	}

	v, err := p.build(opt.Env)
	if err != nil {
		return nil, err
	}
	p.v = v
	p.ready()
	return p, nil
}

// initialize is the explicit initializer step of policy.StaticInit, the
// counterpart of an init() block assigning the variable.
func (p *static[E, T]) initialize(env *E) error {
	v, err := p.build(env)
	if err != nil {
		return err
	}
	p.v = v
	p.ready()
	return nil
}

func (p *static[E, T]) Get() (*T, error) { return p.GetWith(nil) }

// GetWith ignores env: the instance was built from Options.Env.
func (p *static[E, T]) GetWith(_ *E) (*T, error) {
	p.hit()
	return p.v, nil
}

// Reset is a no-op: an eager instance lives for the whole process.
func (p *static[E, T]) Reset() {}
