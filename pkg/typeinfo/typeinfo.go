// Package typeinfo maps Go runtime types to stable descriptors. A
// descriptor's name is what a store records next to each entry, and it is
// what Read checks against before decoding.
//
// Types may be registered under an explicit name, which keeps stored data
// readable after a package is moved or renamed. Unregistered types get a
// derived name: the type's string form for builtin and unnamed types, and
// "<import path>.<Name>" for named types.
package typeinfo

import (
	"reflect"
	"sync"

	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/registry"
)

// Descriptor identifies a runtime type.
type Descriptor struct {
	name string
	typ  reflect.Type
}

// Name is the stable name recorded in store headers.
func (d Descriptor) Name() string { return d.name }

// Type is the runtime type, or nil when the descriptor was rebuilt from a
// name that is not known in this process.
func (d Descriptor) Type() reflect.Type { return d.typ }

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool { return d.name == "" }

func (d Descriptor) String() string { return d.name }

// Registry resolves types to descriptors and names back to types.
type Registry struct {
	names registry.Registry[reflect.Type]

	mu       sync.RWMutex
	byType   map[reflect.Type]string
	observed map[string]reflect.Type
}

// NewRegistry returns a Registry that knows the common builtin types.
func NewRegistry() *Registry {
	r := &Registry{
		names:    registry.New[reflect.Type](),
		byType:   make(map[reflect.Type]string),
		observed: make(map[string]reflect.Type),
	}
	for _, t := range builtins {
		r.observed[t.String()] = t
	}
	return r
}

var builtins = []reflect.Type{
	reflect.TypeFor[bool](),
	reflect.TypeFor[string](),
	reflect.TypeFor[int](),
	reflect.TypeFor[int8](),
	reflect.TypeFor[int16](),
	reflect.TypeFor[int32](),
	reflect.TypeFor[int64](),
	reflect.TypeFor[uint](),
	reflect.TypeFor[uint8](),
	reflect.TypeFor[uint16](),
	reflect.TypeFor[uint32](),
	reflect.TypeFor[uint64](),
	reflect.TypeFor[float32](),
	reflect.TypeFor[float64](),
	reflect.TypeFor[[]byte](),
	reflect.TypeFor[[]string](),
	reflect.TypeFor[[]int](),
	reflect.TypeFor[[]float64](),
	reflect.TypeFor[map[string]string](),
	reflect.TypeFor[map[string]int](),
	reflect.TypeFor[map[string]any](),
}

// Register binds t to name. Registering the same type twice, or two types
// under one name, fails with ErrAlreadyExists.
func (r *Registry) Register(name string, t reflect.Type) error {
	if t == nil {
		return errors.New(errors.ErrInvalidInput, "cannot register a nil type")
	}
	if t.Kind() == reflect.Interface {
		return errors.Newf(errors.ErrInvalidInput, "cannot register interface type %s", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byType[t]; ok {
		return errors.Newf(errors.ErrAlreadyExists, "type %s is already registered as %q", t, existing)
	}
	if err := r.names.Register(name, t); err != nil {
		return err
	}
	r.byType[t] = name
	return nil
}

// Of returns the descriptor for t.
func (r *Registry) Of(t reflect.Type) Descriptor {
	if t == nil {
		return Descriptor{}
	}

	r.mu.RLock()
	name, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return Descriptor{name: name, typ: t}
	}

	name = derivedName(t)
	r.mu.Lock()
	r.observed[name] = t
	r.mu.Unlock()
	return Descriptor{name: name, typ: t}
}

// Resolve rebuilds a descriptor from a stored name. The returned
// descriptor has a nil Type when the name is unknown to this process.
func (r *Registry) Resolve(name string) Descriptor {
	if t, ok := r.names.Lookup(name); ok {
		return Descriptor{name: name, typ: t}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return Descriptor{name: name, typ: r.observed[name]}
}

// Check decides whether a value stored as stored may be read as want. It
// returns the concrete type to decode into. Exact matches decode into want
// itself; interface targets accept any resolvable stored type that
// implements them.
func (r *Registry) Check(stored Descriptor, want reflect.Type) (reflect.Type, error) {
	wantDesc := r.Of(want)
	if wantDesc.name == stored.name {
		return want, nil
	}

	if want.Kind() == reflect.Interface {
		concrete := stored.typ
		if concrete == nil {
			concrete = r.Resolve(stored.name).typ
		}
		if concrete != nil && concrete.AssignableTo(want) {
			return concrete, nil
		}
	}

	return nil, errors.Newf(errors.ErrTypeMismatch, "stored type %s cannot be read as %s", stored.name, wantDesc.name).
		WithDetail("stored", stored.name).
		WithDetail("requested", wantDesc.name)
}

func derivedName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register binds T to name in the process-wide registry.
func Register[T any](name string) error {
	return defaultRegistry.Register(name, reflect.TypeFor[T]())
}

// MustRegister is Register for init functions.
func MustRegister[T any](name string) {
	if err := Register[T](name); err != nil {
		panic(err)
	}
}

// DescriptorFor returns the descriptor of T in r.
func DescriptorFor[T any](r *Registry) Descriptor {
	return r.Of(reflect.TypeFor[T]())
}
