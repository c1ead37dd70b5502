package instance

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IvanBrykalov/singleton/policy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	id  int64
	dsn string
}

type env struct{ dsn string }

// counting returns a constructor that numbers every instance it builds.
func counting(calls *atomic.Int64) Constructor[env, settings] {
	return func(e *env) (*settings, error) {
		n := calls.Add(1)
		s := &settings{id: n}
		if e != nil {
			s.dsn = e.dsn
		}
		return s, nil
	}
}

type fakeMetrics struct {
	hits, misses, constructed, failed, waits atomic.Int64
}

func (m *fakeMetrics) Hit()                      { m.hits.Add(1) }
func (m *fakeMetrics) Miss()                     { m.misses.Add(1) }
func (m *fakeMetrics) Constructed(time.Duration) { m.constructed.Add(1) }
func (m *fakeMetrics) Failed()                   { m.failed.Add(1) }
func (m *fakeMetrics) Wait(time.Duration)        { m.waits.Add(1) }

var lazyKinds = []policy.Kind{
	policy.Unsynchronized,
	policy.Synchronized,
	policy.CheckThenLock,
	policy.Holder,
	policy.DoubleChecked,
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(Options[env, settings]{Policy: policy.Holder})
	require.ErrorIs(t, err, ErrNoConstructor)

	_, err = New(Options[env, settings]{Policy: policy.FixedSet})
	require.ErrorIs(t, err, ErrNoValue)

	_, err = New(Options[env, settings]{Policy: policy.Kind(99), Constructor: counting(new(atomic.Int64))})
	require.ErrorIs(t, err, policy.ErrUnknownKind)

	assert.Panics(t, func() { MustNew(Options[env, settings]{Policy: policy.Static}) })
}

// Lazy policies build on first access and return the same pointer afterwards.
func TestLazy_BuildOnFirstAccess(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			p, err := New(Options[env, settings]{Policy: k, Constructor: counting(&calls)})
			require.NoError(t, err)
			assert.Equal(t, k, p.Kind())
			assert.Equal(t, Unconstructed, p.State())
			assert.Zero(t, calls.Load(), "built before first access")

			first, err := p.Get()
			require.NoError(t, err)
			require.NotNil(t, first)
			assert.Equal(t, Ready, p.State())

			for i := 0; i < 10; i++ {
				again, err := p.Get()
				require.NoError(t, err)
				assert.Same(t, first, again)
			}
			assert.EqualValues(t, 1, calls.Load())
			assert.Equal(t, Stats{Hits: 10, Misses: 1, Constructions: 1}, p.Stats())
		})
	}
}

// Eager policies build inside New, from Options.Env.
func TestEager_BuildInNew(t *testing.T) {
	t.Parallel()

	for _, k := range []policy.Kind{policy.Static, policy.StaticInit} {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			p, err := New(Options[env, settings]{
				Policy:      k,
				Constructor: counting(&calls),
				Env:         &env{dsn: "boot"},
			})
			require.NoError(t, err)
			assert.EqualValues(t, 1, calls.Load(), "eager policy must build in New")
			assert.Equal(t, Ready, p.State())

			a, err := p.Get()
			require.NoError(t, err)
			b, err := p.GetWith(&env{dsn: "ignored"})
			require.NoError(t, err)
			assert.Same(t, a, b)
			assert.Equal(t, "boot", a.dsn)

			p.Reset()
			c, _ := p.Get()
			assert.Same(t, a, c, "Reset must not drop an eager instance")
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

func TestEager_FailureReturnedFromNew(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p, err := New(Options[env, settings]{
		Policy:      policy.StaticInit,
		Constructor: func(*env) (*settings, error) { return nil, boom },
	})
	assert.Nil(t, p)
	require.ErrorIs(t, err, ErrConstructionFailed)
	require.ErrorIs(t, err, boom)

	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, policy.StaticInit, ce.Policy)
	assert.Equal(t, "*instance.settings", ce.Name)
}

func TestFixedSet(t *testing.T) {
	t.Parallel()

	members := []settings{{id: 1}, {id: 2}}
	p, err := New(Options[env, settings]{Policy: policy.FixedSet, Value: &members[1]})
	require.NoError(t, err)
	assert.Equal(t, Ready, p.State())

	v, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, &members[1], v)
	assert.Equal(t, Stats{Hits: 1}, p.Stats())
}

// The Env given to the constructing call is used; later calls may omit it.
func TestEnv_FirstCallOnly(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			p := MustNew(Options[env, settings]{Policy: k, RequireEnv: true, Constructor: counting(&calls)})

			v, err := p.GetWith(&env{dsn: "db://first"})
			require.NoError(t, err)
			assert.Equal(t, "db://first", v.dsn)

			again, err := p.Get()
			require.NoError(t, err)
			assert.Same(t, v, again)

			other, err := p.GetWith(&env{dsn: "db://second"})
			require.NoError(t, err)
			assert.Same(t, v, other)
			assert.Equal(t, "db://first", other.dsn)
		})
	}
}

// Options.Env stands in when the constructing access carries no Env.
func TestEnv_OptionsFallback(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			p := MustNew(Options[env, settings]{
				Policy:      k,
				RequireEnv:  true,
				Env:         &env{dsn: "db://default"},
				Constructor: counting(new(atomic.Int64)),
			})
			v, err := p.Get()
			require.NoError(t, err)
			assert.Equal(t, "db://default", v.dsn)
		})
	}

	p := MustNew(Options[env, settings]{
		Policy:      policy.Holder,
		Env:         &env{dsn: "db://default"},
		Constructor: counting(new(atomic.Int64)),
	})
	v, err := p.GetWith(&env{dsn: "db://explicit"})
	require.NoError(t, err)
	assert.Equal(t, "db://explicit", v.dsn)
}

func TestEnv_MissingRequired(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			p := MustNew(Options[env, settings]{Policy: k, RequireEnv: true, Constructor: counting(&calls)})

			v, err := p.Get()
			assert.Nil(t, v)
			require.ErrorIs(t, err, ErrConstructionFailed)
			require.ErrorIs(t, err, ErrMissingEnv)
			assert.Zero(t, calls.Load(), "constructor must not run without env")
			assert.Equal(t, Unconstructed, p.State())

			v, err = p.GetWith(&env{dsn: "late"})
			require.NoError(t, err)
			assert.Equal(t, "late", v.dsn)
		})
	}

	_, err := New(Options[env, settings]{Policy: policy.Static, RequireEnv: true, Constructor: counting(new(atomic.Int64))})
	require.ErrorIs(t, err, ErrMissingEnv)
}

// A failed first attempt leaves the provider Unconstructed; the next call retries.
func TestFailure_RetryOnNextAccess(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		k := k
		t.Run(k.String(), func(t *testing.T) {
			t.Parallel()

			boom := errors.New("db down")
			var attempts atomic.Int64
			m := &fakeMetrics{}
			p := MustNew(Options[env, settings]{
				Policy:  k,
				Metrics: m,
				Constructor: func(*env) (*settings, error) {
					if attempts.Add(1) == 1 {
						return nil, boom
					}
					return &settings{id: 7}, nil
				},
			})

			v, err := p.Get()
			assert.Nil(t, v)
			require.ErrorIs(t, err, boom)
			assert.Equal(t, Unconstructed, p.State())

			v, err = p.Get()
			require.NoError(t, err)
			assert.EqualValues(t, 7, v.id)
			assert.EqualValues(t, 2, attempts.Load())
			assert.Equal(t, Ready, p.State())

			assert.Equal(t, Stats{Misses: 2, Constructions: 1, Failures: 1}, p.Stats())
			assert.EqualValues(t, 2, m.misses.Load())
			assert.EqualValues(t, 1, m.failed.Load())
			assert.EqualValues(t, 1, m.constructed.Load())
		})
	}
}

func TestFailure_PanicAndNil(t *testing.T) {
	t.Parallel()

	p := MustNew(Options[env, settings]{
		Policy:      policy.DoubleChecked,
		Constructor: func(*env) (*settings, error) { panic("kaboom") },
	})
	_, err := p.Get()
	var pe PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Contains(t, err.Error(), "constructor panicked: kaboom")
	assert.Equal(t, Unconstructed, p.State())

	q := MustNew(Options[env, settings]{
		Policy:      policy.Holder,
		Constructor: func(*env) (*settings, error) { return nil, nil },
	})
	_, err = q.Get()
	require.ErrorIs(t, err, ErrNilInstance)
}

func TestReset_Lazy(t *testing.T) {
	t.Parallel()

	for _, k := range lazyKinds {
		var calls atomic.Int64
		p := MustNew(Options[env, settings]{Policy: k, Constructor: counting(&calls)})

		a, _ := p.Get()
		p.Reset()
		assert.Equal(t, Unconstructed, p.State(), k.String())
		b, err := p.Get()
		require.NoError(t, err)
		assert.NotSame(t, a, b, k.String())
		assert.EqualValues(t, 2, calls.Load(), k.String())
	}
}

// Locking policies report lock waits; lock-free ones do not.
func TestMetrics_Wait(t *testing.T) {
	t.Parallel()

	waits := func(k policy.Kind) int64 {
		m := &fakeMetrics{}
		p := MustNew(Options[env, settings]{Policy: k, Metrics: m, Constructor: counting(new(atomic.Int64))})
		for i := 0; i < 5; i++ {
			_, _ = p.Get()
		}
		assert.EqualValues(t, 4, m.hits.Load(), k.String())
		return m.waits.Load()
	}

	assert.EqualValues(t, 5, waits(policy.Synchronized))
	assert.EqualValues(t, 1, waits(policy.DoubleChecked))
	assert.EqualValues(t, 1, waits(policy.CheckThenLock))
	assert.Zero(t, waits(policy.Holder))
	assert.Zero(t, waits(policy.Unsynchronized))
}

func TestLogger_ConstructionEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	attempts := 0
	p := MustNew(Options[env, settings]{
		Policy: policy.Synchronized,
		Name:   "settings",
		Logger: &log,
		Constructor: func(*env) (*settings, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("first")
			}
			return &settings{}, nil
		},
	})

	_, _ = p.Get()
	_, _ = p.Get()

	out := buf.String()
	assert.Contains(t, out, `"provider":"settings"`)
	assert.Contains(t, out, `"policy":"synchronized"`)
	assert.Contains(t, out, "construction failed")
	assert.Contains(t, out, "instance constructed")
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unconstructed", Unconstructed.String())
	assert.Equal(t, "constructing", Constructing.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}
