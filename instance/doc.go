// Package instance provides process-wide accessors that hand out one shared
// *T under a chosen initialization policy.
//
// Design
//
//   - Policies: the eight classic singleton idioms are selectable through
//     policy.Kind. Six of them guarantee a single construction; two
//     (policy.Unsynchronized and policy.CheckThenLock) are kept as flawed
//     reference variants and may construct more than once under contention.
//     See policy.Describe for the full table.
//
//   - Publication: lazy policies publish through an atomic.Pointer, so a
//     goroutine that sees a non-nil instance also sees it fully built.
//
//   - Env: a construction Env (*E) may be passed with GetWith. It is only
//     consulted by the access that actually constructs; later accesses may
//     omit it. Options.Env is used when the constructing access has none.
//     Set Options.RequireEnv to fail construction without any Env.
//
//   - Failures: constructor errors, panics, nil results and missing Env all
//     surface as *ConstructionError (errors.Is(err, ErrConstructionFailed)) to
//     the goroutine that triggered construction. The provider stays
//     Unconstructed and the next access tries again; nothing is retried
//     automatically.
//
//   - State: Unconstructed -> Constructing -> Ready, back to Unconstructed on
//     failure. With the flawed variants several builders overlap, so State
//     may briefly read Constructing or Unconstructed while an instance is
//     already published; it settles on Ready once the overlapping builders
//     return.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Constructed/Failed/Wait
//     signals. By default NoopMetrics is used; plug metrics/prom to export them.
//     Options.Logger (zerolog) receives construction events.
//
// Basic usage
//
//	p, err := instance.New(instance.Options[struct{}, Settings]{
//	    Policy: policy.DoubleChecked,
//	    Constructor: func(*struct{}) (*Settings, error) {
//	        return loadSettings()
//	    },
//	})
//	s, err := p.Get()
//
// With a construction Env
//
//	p := instance.MustNew(instance.Options[Env, DB]{
//	    Policy:      policy.Holder,
//	    RequireEnv:  true,
//	    Constructor: func(env *Env) (*DB, error) { return open(env.DSN) },
//	})
//	db, err := p.GetWith(&Env{DSN: dsn}) // first call builds
//	db, err = p.Get()                     // later calls may omit env
//
// Package-level lazy value
//
//	var catalog = instance.Lazy(func() (*Catalog, error) { return loadCatalog() })
//
//	c := catalog.MustGet()
//
// Thread-safety
//
// Get and GetWith are safe for concurrent use for every policy; the flawed
// variants are memory-safe but may hand different callers different
// instances during the first race. Reset exists for test isolation and must
// not run concurrently with accesses.
package instance
