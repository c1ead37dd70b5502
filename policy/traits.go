package policy

// Traits summarizes the guarantees of a Kind.
type Traits struct {
	// Lazy is true when construction waits for the first access.
	Lazy bool
	// ThreadSafe is true when concurrent use never observes a torn or
	// partially built instance.
	ThreadSafe bool
	// LockOnHotPath is true when a lock is taken after the instance is ready.
	LockOnHotPath bool
	// Constructs is false for kinds that hand out pre-existing values.
	Constructs bool
	// SingleConstruction is true when the constructor runs at most once
	// even under contention.
	SingleConstruction bool
	// Notes is a one-line human description.
	Notes string
}

var traits = [...]Traits{
	Holder: {
		Lazy: true, ThreadSafe: true, Constructs: true, SingleConstruction: true,
		Notes: "one-shot guard, lock-free steady state",
	},
	Unsynchronized: {
		Lazy: true, ThreadSafe: false, Constructs: true,
		Notes: "racing first callers may build more than one instance",
	},
	Synchronized: {
		Lazy: true, ThreadSafe: true, LockOnHotPath: true, Constructs: true, SingleConstruction: true,
		Notes: "correct, pays the lock on every access",
	},
	Static: {
		ThreadSafe: true, Constructs: true, SingleConstruction: true,
		Notes: "built at creation even if never used",
	},
	StaticInit: {
		ThreadSafe: true, Constructs: true, SingleConstruction: true,
		Notes: "same as static, built through an explicit initializer",
	},
	CheckThenLock: {
		Lazy: true, ThreadSafe: true, Constructs: true,
		Notes: "lock without inner re-check; queued callers rebuild",
	},
	FixedSet: {
		ThreadSafe: true, SingleConstruction: true,
		Notes: "selects one value of a fixed set, nothing is built",
	},
	DoubleChecked: {
		Lazy: true, ThreadSafe: true, Constructs: true, SingleConstruction: true,
		Notes: "atomic fast path, re-check under the lock",
	},
}

// Describe returns the traits of k. Unknown kinds yield the zero Traits.
func Describe(k Kind) Traits {
	if !k.Valid() {
		return Traits{}
	}
	return traits[k]
}
