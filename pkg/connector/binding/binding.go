// Package binding implements the per-catalog resolution scope of a connector
// factory.
//
// A catalog is described by an ordered module set. Each Module contributes
// bindings (key -> provider function) into a Binder. Build applies the modules
// in order, lets a later module override a key bound by an earlier one, and
// then instantiates every binding exactly once. The resulting Container is
// immutable: resolving a key returns the cached instance.
//
//	var GreeterKey = binding.NewKey[Greeter]("greeter")
//
//	base := binding.NewModule("base", func(b *binding.Binder) error {
//	    binding.Bind(b, GreeterKey, func(r binding.Resolver) (Greeter, error) {
//	        return englishGreeter{}, nil
//	    })
//	    return nil
//	})
//
//	c, err := binding.Build([]binding.Module{base}, GreeterKey)
//	g, err := binding.Get(c, GreeterKey)
package binding

import (
	"fmt"

	"github.com/ajitpratap0/metacat/pkg/errors"
)

// Named is anything with a binding key name. Every Key implements it.
type Named interface {
	Name() string
}

// Key identifies a binding and the type its value resolves to.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Keys with the same name address the same binding.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name
func (k Key[T]) Name() string { return k.name }

func (k Key[T]) String() string { return k.name }

// Provider builds the value of a key. Other keys are resolved through r.
type Provider[T any] func(r Resolver) (T, error)

// Resolver resolves bound values by key name.
type Resolver interface {
	Resolve(name string) (any, error)
}

// Stopper is implemented by bound values that hold factory-owned state.
// Container.Close calls Stop on them; values that only implement io.Closer
// are never closed because they may be shared infrastructure.
type Stopper interface {
	Stop() error
}

// Module contributes bindings for one catalog.
type Module interface {
	Name() string
	Configure(b *Binder) error
}

type moduleFunc struct {
	name string
	fn   func(b *Binder) error
}

func (m moduleFunc) Name() string              { return m.name }
func (m moduleFunc) Configure(b *Binder) error { return m.fn(b) }

// NewModule adapts a function into a Module
func NewModule(name string, configure func(b *Binder) error) Module {
	return moduleFunc{name: name, fn: configure}
}

type providerFunc func(r Resolver) (any, error)

type entry struct {
	key     string
	module  string
	provide providerFunc
}

// Binder collects the bindings of a single module.
type Binder struct {
	module  string
	entries map[string]*entry
	order   []string
	errs    []error
}

func newBinder(module string) *Binder {
	return &Binder{module: module, entries: make(map[string]*entry)}
}

// Module returns the name of the module being configured
func (b *Binder) Module() string { return b.module }

func (b *Binder) add(key string, p providerFunc) {
	if key == "" {
		b.errs = append(b.errs, fmt.Errorf("module %s: binding with empty key", b.module))
		return
	}
	if _, dup := b.entries[key]; dup {
		b.errs = append(b.errs, fmt.Errorf("module %s: conflicting binding for %s", b.module, key))
		return
	}
	b.entries[key] = &entry{key: key, module: b.module, provide: p}
	b.order = append(b.order, key)
}

// Bind binds key to a provider. Binding the same key twice within one module
// is a conflict and fails the build.
func Bind[T any](b *Binder, key Key[T], p Provider[T]) {
	if p == nil {
		b.errs = append(b.errs, fmt.Errorf("module %s: nil provider for %s", b.module, key.name))
		return
	}
	b.add(key.name, func(r Resolver) (any, error) {
		return p(r)
	})
}

// BindInstance binds key to an already built value
func BindInstance[T any](b *Binder, key Key[T], v T) {
	Bind(b, key, func(Resolver) (T, error) { return v, nil })
}

// Get resolves key from r and checks the value type
func Get[T any](r Resolver, key Key[T]) (T, error) {
	var zero T
	v, err := r.Resolve(key.name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Newf(errors.ErrorTypeResolution, "binding %s holds %T, want %T", key.name, v, zero)
	}
	return t, nil
}

// MustGet is Get for tests and init code that cannot recover from a missing binding
func MustGet[T any](r Resolver, key Key[T]) T {
	v, err := Get(r, key)
	if err != nil {
		panic(err)
	}
	return v
}
