package instance

import (
	"fmt"

	"github.com/IvanBrykalov/singleton/policy"
)

// New constructs a provider for opt.Policy.
//
// Eager policies (policy.Static, policy.StaticInit) build the instance here,
// using opt.Env; a construction failure is returned as a *ConstructionError.
// Lazy policies build on first access. policy.FixedSet never builds.
func New[E, T any](opt Options[E, T]) (Provider[E, T], error) {
	if !opt.Policy.Valid() {
		return nil, fmt.Errorf("instance: %w: %v", policy.ErrUnknownKind, opt.Policy)
	}
	if opt.Policy == policy.FixedSet {
		if opt.Value == nil {
			return nil, ErrNoValue
		}
	} else if opt.Constructor == nil {
		return nil, ErrNoConstructor
	}

	switch opt.Policy {
	case policy.Unsynchronized:
		p := &unsynchronized[E, T]{}
		p.init(opt)
		return p, nil
	case policy.Synchronized:
		p := &synchronized[E, T]{}
		p.init(opt)
		return p, nil
	case policy.Static, policy.StaticInit:
		p, err := newStatic(opt)
		if err != nil {
			return nil, err
		}
		return p, nil
	case policy.CheckThenLock:
		p := &checkThenLock[E, T]{}
		p.init(opt)
		return p, nil
	case policy.Holder:
		p := &lazyHolder[E, T]{}
		p.init(opt)
		return p, nil
	case policy.FixedSet:
		return newFixedSet(opt), nil
	default: // policy.DoubleChecked
		p := &doubleChecked[E, T]{}
		p.init(opt)
		return p, nil
	}
}

// MustNew is New that panics on error. It suits package-level variables:
//
//	var settings = instance.MustNew(instance.Options[Env, Settings]{
//	    Policy:      policy.Static,
//	    Constructor: newSettings,
//	})
func MustNew[E, T any](opt Options[E, T]) Provider[E, T] {
	p, err := New(opt)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile-time checks: every policy implements Provider.
var (
	_ Provider[struct{}, int] = (*unsynchronized[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*synchronized[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*static[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*checkThenLock[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*lazyHolder[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*fixedSet[struct{}, int])(nil)
	_ Provider[struct{}, int] = (*doubleChecked[struct{}, int])(nil)
)
