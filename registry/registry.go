// Package registry keeps process-wide providers addressable by name.
//
// Providers of any type are registered under a unique name and resolved
// with their concrete type:
//
//	r := registry.Default()
//	_ = registry.Register(r, "settings", settingsProvider)
//	s, err := registry.Resolve[Settings](ctx, r, "settings")
//
// Concurrent first resolutions of the same name are coalesced, so even the
// flawed reference policies construct once when accessed only through a
// registry. Names are spread over power-of-two shards, each with its own
// RWMutex.
package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/IvanBrykalov/singleton/instance"
	"github.com/IvanBrykalov/singleton/internal/singleflight"
	"github.com/IvanBrykalov/singleton/internal/util"
	"github.com/IvanBrykalov/singleton/policy"
	"github.com/rs/zerolog"
)

var (
	// ErrDuplicate is returned by Register when the name is taken.
	ErrDuplicate = errors.New("registry: name already registered")
	// ErrNotFound is returned by Resolve for unknown names.
	ErrNotFound = errors.New("registry: name not registered")
	// ErrNilProvider is returned by Register for a nil provider.
	ErrNilProvider = errors.New("registry: nil provider")
)

// TypeError is returned by Resolve when the name holds a provider of
// another type.
type TypeError struct {
	Name string
	Want reflect.Type
	Got  reflect.Type
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("registry: %q holds %v, not %v", e.Name, e.Got, e.Want)
}

// Options configures a Registry. Zero values are safe:
//   - Shards <= 0 => 2*GOMAXPROCS; any value is rounded up to a power of two, at most 256
//   - nil Logger  => zerolog.Nop()
type Options struct {
	Shards int
	Logger *zerolog.Logger
}

// entry is a type-erased provider.
type entry struct {
	typ   reflect.Type
	kind  policy.Kind
	get   func() (any, error)
	state func() instance.State
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*entry
}

// Registry maps names to providers. Safe for concurrent use.
//
// Type-keyed instances created by Shared live in their own map keyed by
// reflect.Type, apart from the names.
type Registry struct {
	shards []*shard
	types  sync.Map // reflect.Type -> *entry
	sf     singleflight.Group[any, any]
	log    zerolog.Logger
}

// New returns an empty Registry.
func New(opt Options) *Registry {
	r := &Registry{shards: make([]*shard, util.ShardCount(opt.Shards)), log: zerolog.Nop()}
	if opt.Logger != nil {
		r.log = *opt.Logger
	}
	for i := range r.shards {
		r.shards[i] = &shard{m: make(map[string]*entry)}
	}
	return r
}

var defaultRegistry = instance.Lazy(func() (*Registry, error) {
	return New(Options{}), nil
})

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry { return defaultRegistry.MustGet() }

func (r *Registry) shardFor(name string) *shard {
	return r.shards[util.ShardIndex(util.HashString(name), len(r.shards))]
}

func (r *Registry) lookup(name string) (*entry, bool) {
	s := r.shardFor(name)
	s.mu.RLock()
	e, ok := s.m[name]
	s.mu.RUnlock()
	return e, ok
}

// insert stores e under name unless taken; it returns the entry that ends up
// registered and whether it is e.
func (r *Registry) insert(name string, e *entry) (*entry, bool) {
	s := r.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.m[name]; ok {
		return cur, false
	}
	s.m[name] = e
	return e, true
}

func wrap[E, T any](p instance.Provider[E, T]) *entry {
	return &entry{
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
		kind: p.Kind(),
		get: func() (any, error) {
			v, err := p.Get()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		state: p.State,
	}
}

// Register adds p under name.
func Register[E, T any](r *Registry, name string, p instance.Provider[E, T]) error {
	if p == nil {
		return ErrNilProvider
	}
	if _, ok := r.insert(name, wrap(p)); !ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.log.Debug().Str("name", name).Stringer("policy", p.Kind()).Msg("provider registered")
	return nil
}

// Resolve returns the instance registered under name. Construction, when
// needed, runs once for all concurrent resolvers; a resolver whose ctx ends
// first returns ctx.Err() while construction carries on.
func Resolve[T any](ctx context.Context, r *Registry, name string) (*T, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if want := reflect.TypeOf((*T)(nil)).Elem(); e.typ != want {
		return nil, &TypeError{Name: name, Want: want, Got: e.typ}
	}
	return get[T](ctx, r, name, e)
}

// get returns e's instance, coalescing first accesses on key.
func get[T any](ctx context.Context, r *Registry, key any, e *entry) (*T, error) {
	var (
		v   any
		err error
	)
	if e.state() == instance.Ready {
		v, err = e.get()
	} else {
		v, _, err = r.sf.Do(ctx, key, e.get)
	}
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Shared returns the instance of T keyed by T itself, creating a
// holder-policy provider around ctor on first use. Later calls ignore ctor.
// Distinct types never collide, even when their names print the same.
// Shared instances are not listed by Names.
func Shared[T any](ctx context.Context, r *Registry, ctor func() (*T, error)) (*T, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	e, ok := r.types.Load(typ)
	if !ok {
		p, err := instance.New(instance.Options[struct{}, T]{
			Policy:      policy.Holder,
			Name:        typ.String(),
			Constructor: func(*struct{}) (*T, error) { return ctor() },
		})
		if err != nil {
			return nil, err
		}
		e, _ = r.types.LoadOrStore(typ, wrap(p))
	}
	return get[T](ctx, r, typ, e.(*entry))
}

// Remove drops name from the registry. The provider itself is untouched.
func (r *Registry) Remove(name string) bool {
	s := r.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[name]; !ok {
		return false
	}
	delete(s.m, name)
	return true
}

// Kind returns the policy of the provider registered under name.
func (r *Registry) Kind(name string) (policy.Kind, bool) {
	e, ok := r.lookup(name)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	var out []string
	for _, s := range r.shards {
		s.mu.RLock()
		for name := range s.m {
			out = append(out, name)
		}
		s.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}
