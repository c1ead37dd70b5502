// Package policy names the initialization policies an instance provider can
// run under and describes the guarantees each one gives.
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKind is returned by Parse for names that match no policy.
var ErrUnknownKind = errors.New("policy: unknown kind")

// Kind selects how and when a provider builds its shared instance.
// The zero Kind is Holder.
type Kind int

const (
	// Holder builds on first access through a one-shot guard; the steady
	// state is a single atomic load.
	Holder Kind = iota
	// Unsynchronized builds on first access without any locking.
	// Concurrent first callers may each construct an instance.
	Unsynchronized
	// Synchronized builds on first access; every access holds the lock.
	Synchronized
	// Static builds when the provider is created.
	Static
	// StaticInit builds when the provider is created, through an explicit
	// initializer step. Behaves exactly like Static.
	StaticInit
	// CheckThenLock checks outside the lock, then locks and builds without
	// re-checking. Callers queued on the lock each construct.
	CheckThenLock
	// FixedSet never builds: it hands out one value of a fixed set.
	FixedSet
	// DoubleChecked builds on first access; the lock is taken only while
	// the slot is empty and the slot is re-checked under the lock.
	DoubleChecked
)

var names = [...]string{
	Holder:         "holder",
	Unsynchronized: "unsynchronized",
	Synchronized:   "synchronized",
	Static:         "static",
	StaticInit:     "static-init",
	CheckThenLock:  "check-then-lock",
	FixedSet:       "fixed-set",
	DoubleChecked:  "double-checked",
}

// long names as they appear in the literature.
var aliases = map[string]Kind{
	"eager-unsynchronized":             Unsynchronized,
	"eager-synchronized":               Synchronized,
	"static-eager":                     Static,
	"static-eager-explicit-init-block": StaticInit,
	"fix-then-lock":                    CheckThenLock,
	"holder-lazy":                      Holder,
	"fixed-set-token":                  FixedSet,
	"double-checked-locking":           DoubleChecked,
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= 0 && int(k) < len(names) }

// String returns the short kebab-case name of k.
func (k Kind) String() string {
	if !k.Valid() {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return names[k]
}

// All returns every kind in declaration order.
func All() []Kind {
	out := make([]Kind, len(names))
	for i := range names {
		out[i] = Kind(i)
	}
	return out
}

// Parse resolves a short or long policy name (case-insensitive).
func Parse(s string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == n {
			return Kind(i), nil
		}
	}
	if k, ok := aliases[n]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
