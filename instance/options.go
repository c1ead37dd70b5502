package instance

import (
	"time"

	"github.com/IvanBrykalov/singleton/policy"
	"github.com/rs/zerolog"
)

// Metrics exposes provider-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// Hit: an access served by an already built instance.
	Hit()
	// Miss: an access that ran the constructor.
	Miss()
	// Constructed: a constructor call succeeded after d.
	Constructed(d time.Duration)
	// Failed: a constructor call failed.
	Failed()
	// Wait: time an access spent blocked on the provider lock.
	Wait(d time.Duration)
}

// Options configures a provider. Zero values are safe; defaults are applied
// in New():
//   - Policy zero value => policy.Holder
//   - empty Name       => the type name of *T
//   - nil Metrics      => NoopMetrics
//   - nil Logger       => zerolog.Nop()
type Options[E, T any] struct {
	// Policy selects when and how the instance is built.
	Policy policy.Kind

	// Constructor builds the instance. Required for every policy except
	// policy.FixedSet.
	Constructor Constructor[E, T]

	// RequireEnv makes construction fail with ErrMissingEnv when the
	// triggering access carries no Env.
	RequireEnv bool

	// Env is the default construction Env. Eager policies build with it
	// inside New; lazy policies fall back to it when the constructing access
	// carries no Env of its own.
	Env *E

	// Value is the pre-existing instance handed out by policy.FixedSet.
	Value *T

	// Name labels log lines and errors.
	Name string

	// Observability
	Metrics Metrics
	Logger  *zerolog.Logger
}
