package instance

// fixedSet hands out a value that already exists: one member of a fixed,
// enumerated set chosen by the caller (typically a package-level var or a
// typed constant's backing value). Nothing is ever constructed, so there is
// nothing to race on.
type fixedSet[E, T any] struct {
	core[E, T]
	v *T
}

func newFixedSet[E, T any](opt Options[E, T]) *fixedSet[E, T] {
	p := &fixedSet[E, T]{v: opt.Value}
	p.init(opt)
	p.ready()
	return p
}

func (p *fixedSet[E, T]) Get() (*T, error) { return p.GetWith(nil) }

func (p *fixedSet[E, T]) GetWith(_ *E) (*T, error) {
	p.hit()
	return p.v, nil
}

func (p *fixedSet[E, T]) Reset() {}
