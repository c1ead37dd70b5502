package instance

// synchronized holds the provider lock for the whole access, so the check
// and the build are one critical section. Correct, but every access pays
// for the lock, including long after the instance is ready.
type synchronized[E, T any] struct {
	core[E, T]
	v *T // guarded by mu
}

func (p *synchronized[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *synchronized[E, T]) GetWith(env *E) (*T, error) {
	p.lock()
	defer p.mu.Unlock()

	if p.v != nil {
		p.hit()
		return p.v, nil
	}
	v, err := p.build(env)
	if err != nil {
		return nil, err
	}
	p.v = v
	p.ready()
	return v, nil
}

func (p *synchronized[E, T]) Reset() {
	p.mu.Lock()
	p.v = nil
	p.state.Store(int32(Unconstructed))
	p.mu.Unlock()
}
