package instance

import (
	"errors"
	"fmt"

	"github.com/IvanBrykalov/singleton/policy"
)

var (
	// ErrConstructionFailed matches every *ConstructionError via errors.Is.
	ErrConstructionFailed = errors.New("instance: construction failed")

	// ErrMissingEnv is the cause when RequireEnv is set and the access that
	// triggered construction carried no Env.
	ErrMissingEnv = errors.New("instance: construction env required")

	// ErrNilInstance is the cause when a constructor returns (nil, nil).
	ErrNilInstance = errors.New("instance: constructor returned nil")

	// ErrNoConstructor is returned by New when a constructing policy has no Constructor.
	ErrNoConstructor = errors.New("instance: no Constructor provided")

	// ErrNoValue is returned by New when policy.FixedSet has no Value.
	ErrNoValue = errors.New("instance: fixed-set policy requires Value")
)

// ConstructionError reports a failed construction attempt. The provider is
// left Unconstructed, so a later access retries.
type ConstructionError struct {
	Name   string
	Policy policy.Kind
	Err    error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	// Example: instance: construct *app.Settings (holder): instance: construction env required
	return "instance: construct " + e.Name + " (" + e.Policy.String() + "): " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ConstructionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConstructionFailed) true for any ConstructionError.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstructionFailed }

// PanicError is the cause when the constructor panicked.
type PanicError struct{ Value any }

// Error implements the error interface.
func (e PanicError) Error() string { return fmt.Sprintf("constructor panicked: %v", e.Value) }
