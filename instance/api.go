package instance

import "github.com/IvanBrykalov/singleton/policy"

// Constructor builds the shared instance. env is the construction Env passed
// to the access that triggered construction (nil when none was supplied).
type Constructor[E, T any] func(env *E) (*T, error)

// Provider hands out a single shared *T under one initialization policy.
// All methods except Reset are safe for concurrent use by multiple goroutines,
// within the limits of the chosen policy (see policy.Describe).
type Provider[E, T any] interface {
	// Get returns the shared instance, building it first if the policy is
	// lazy and nothing has been built yet.
	Get() (*T, error)

	// GetWith is Get carrying a construction Env. env is consulted only when
	// this call actually constructs; once built, any env (or nil) returns
	// the same instance.
	GetWith(env *E) (*T, error)

	// Kind returns the policy the provider runs under.
	Kind() policy.Kind

	// State reports where the provider is in its lifecycle.
	State() State

	// Stats returns a snapshot of the provider's access counters.
	Stats() Stats

	// Reset drops a lazily built instance so the next access constructs
	// again. Eager and fixed-set providers ignore it.
	// Intended for test isolation; must not race with Get.
	Reset()
}

// State is the lifecycle position of a provider.
type State int32

const (
	// Unconstructed: nothing has been built (or the last attempt failed).
	Unconstructed State = iota
	// Constructing: a constructor call is in progress.
	Constructing
	// Ready: the instance is published.
	Ready
)

func (s State) String() string {
	switch s {
	case Unconstructed:
		return "unconstructed"
	case Constructing:
		return "constructing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}
