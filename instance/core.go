package instance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/singleton/internal/util"
	"github.com/IvanBrykalov/singleton/policy"
	"github.com/rs/zerolog"
)

// Stats is a snapshot of a provider's counters.
type Stats struct {
	Hits          int64 // accesses served by an existing instance
	Misses        int64 // accesses that ran the constructor
	Constructions int64 // successful constructor calls
	Failures      int64 // failed constructor calls
}

// core holds what every policy shares: configuration, the lifecycle state,
// the provider-private lock and the counters.
type core[E, T any] struct {
	name       string
	kind       policy.Kind
	ctor       Constructor[E, T]
	env        *E // fallback for accesses without their own Env
	requireEnv bool
	metrics    Metrics
	log        zerolog.Logger

	state atomic.Int32
	// mu is owned by this provider only; policies that do not lock never touch it.
	mu sync.Mutex

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_             util.CacheLinePad
	hits          util.PaddedAtomicInt64
	misses        util.PaddedAtomicInt64
	constructions util.PaddedAtomicInt64
	failures      util.PaddedAtomicInt64
}

// init applies Options defaults. Called once, before the provider is shared.
func (c *core[E, T]) init(opt Options[E, T]) {
	c.kind = opt.Policy
	c.ctor = opt.Constructor
	c.env = opt.Env
	c.requireEnv = opt.RequireEnv

	c.name = opt.Name
	if c.name == "" {
		c.name = fmt.Sprintf("%T", (*T)(nil))
	}
	c.metrics = opt.Metrics
	if c.metrics == nil {
		c.metrics = NoopMetrics{}
	}
	base := zerolog.Nop()
	if opt.Logger != nil {
		base = *opt.Logger
	}
	c.log = base.With().Str("provider", c.name).Stringer("policy", c.kind).Logger()
}

func (c *core[E, T]) Kind() policy.Kind { return c.kind }

func (c *core[E, T]) State() State { return State(c.state.Load()) }

func (c *core[E, T]) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Constructions: c.constructions.Load(),
		Failures:      c.failures.Load(),
	}
}

func (c *core[E, T]) hit() {
	c.hits.Add(1)
	c.metrics.Hit()
}

func (c *core[E, T]) ready() { c.state.Store(int32(Ready)) }

// lock takes the provider lock and reports the time spent waiting for it.
func (c *core[E, T]) lock() {
	start := time.Now()
	c.mu.Lock()
	c.metrics.Wait(time.Since(start))
}

// build runs one construction attempt. On failure the state goes back to
// Unconstructed and nothing is returned; publishing a successful result is
// the caller's job.
func (c *core[E, T]) build(env *E) (*T, error) {
	if env == nil {
		env = c.env
	}
	c.state.Store(int32(Constructing))
	c.misses.Add(1)
	c.metrics.Miss()
	c.log.Debug().Bool("env", env != nil).Msg("constructing instance")

	start := time.Now()
	v, err := c.construct(env)
	if err != nil {
		c.state.Store(int32(Unconstructed))
		c.failures.Add(1)
		c.metrics.Failed()
		c.log.Warn().Err(err).Msg("construction failed")
		return nil, err
	}
	d := time.Since(start)
	c.constructions.Add(1)
	c.metrics.Constructed(d)
	c.log.Debug().Dur("duration", d).Msg("instance constructed")
	return v, nil
}

// construct calls the constructor, turning every failure mode (missing env,
// error, nil result, panic) into a *ConstructionError.
func (c *core[E, T]) construct(env *E) (v *T, err error) {
	if c.requireEnv && env == nil {
		return nil, c.fail(ErrMissingEnv)
	}
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			err = c.fail(PanicError{Value: rec})
		}
	}()
	v, err = c.ctor(env)
	if err != nil {
		return nil, c.fail(err)
	}
	if v == nil {
		return nil, c.fail(ErrNilInstance)
	}
	return v, nil
}

func (c *core[E, T]) fail(cause error) error {
	return &ConstructionError{Name: c.name, Policy: c.kind, Err: cause}
}
