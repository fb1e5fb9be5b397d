package binding

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ajitpratap0/metacat/pkg/errors"
)

// Override records a key whose binding was replaced by a later module
type Override struct {
	Key  string
	From string
	To   string
}

// Container is the immutable resolution scope built from a module set.
// Resolve is safe for concurrent use; Close is idempotent.
type Container struct {
	instances map[string]any
	modules   map[string]string
	order     []string
	overrides []Override

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Build applies modules in order and eagerly instantiates every binding.
// It fails with a config error when the module set is empty or contains a
// nil module, when a module fails to configure or binds a key twice, when a
// required key is unbound, when bindings depend on each other circularly, or
// when a provider fails. On failure, values already instantiated that
// implement Stopper are stopped and no container is returned.
func Build(modules []Module, required ...Named) (*Container, error) {
	if len(modules) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "module set is empty")
	}

	merged := make(map[string]*entry)
	var order []string
	var overrides []Override

	for i, m := range modules {
		if m == nil {
			return nil, errors.Newf(errors.ErrorTypeConfig, "module set entry %d is nil", i)
		}
		name := m.Name()
		if name == "" {
			name = fmt.Sprintf("module[%d]", i)
		}

		b := newBinder(name)
		if err := m.Configure(b); err != nil {
			return nil, wrapConfig(err, fmt.Sprintf("module %s failed to configure", name))
		}
		if len(b.errs) > 0 {
			return nil, errors.Wrap(errors.Join(b.errs...), errors.ErrorTypeConfig, "invalid module set")
		}

		for _, key := range b.order {
			e := b.entries[key]
			if prev, ok := merged[key]; ok {
				overrides = append(overrides, Override{Key: key, From: prev.module, To: e.module})
			} else {
				order = append(order, key)
			}
			merged[key] = e
		}
	}

	var missing []string
	for _, r := range required {
		if _, ok := merged[r.Name()]; !ok {
			missing = append(missing, r.Name())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Newf(errors.ErrorTypeConfig, "module set does not bind %s", strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}

	bld := &builder{
		entries:   merged,
		instances: make(map[string]any, len(merged)),
		state:     make(map[string]int, len(merged)),
	}
	for _, key := range order {
		if _, err := bld.Resolve(key); err != nil {
			bld.rollback()
			return nil, wrapConfig(err, "failed to build binding container")
		}
	}

	modulesByKey := make(map[string]string, len(merged))
	for k, e := range merged {
		modulesByKey[k] = e.module
	}

	return &Container{
		instances: bld.instances,
		modules:   modulesByKey,
		order:     bld.created,
		overrides: overrides,
	}, nil
}

func wrapConfig(err error, msg string) error {
	if errors.IsConfiguration(err) {
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeConfig, msg)
}

// Resolve returns the instance bound to name
func (c *Container) Resolve(name string) (any, error) {
	if c == nil {
		return nil, errors.New(errors.ErrorTypeResolution, "binding container was never built")
	}
	if c.closed.Load() {
		return nil, errors.Newf(errors.ErrorTypeResolution, "binding container is closed; cannot resolve %s", name)
	}
	v, ok := c.instances[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeResolution, "no binding for %s", name)
	}
	return v, nil
}

// Has reports whether name is bound
func (c *Container) Has(name string) bool {
	_, ok := c.instances[name]
	return ok
}

// Keys returns the bound keys in instantiation order
func (c *Container) Keys() []string {
	return append([]string(nil), c.order...)
}

// BoundBy returns the module whose binding for name won
func (c *Container) BoundBy(name string) string {
	return c.modules[name]
}

// Overrides lists bindings replaced by later modules, in application order
func (c *Container) Overrides() []Override {
	return append([]Override(nil), c.overrides...)
}

// Closed reports whether Close has been called
func (c *Container) Closed() bool {
	return c.closed.Load()
}

// Close stops every instance implementing Stopper in reverse instantiation
// order. It runs once; later calls return nil.
func (c *Container) Close() error {
	first := false
	c.closeOnce.Do(func() {
		first = true
		c.closed.Store(true)
		c.closeErr = stopAll(c.order, c.instances)
	})
	if !first {
		return nil
	}
	return c.closeErr
}

func stopAll(order []string, instances map[string]any) error {
	var errs []error
	seen := make(map[any]struct{})
	for i := len(order) - 1; i >= 0; i-- {
		s, ok := instances[order[i]].(Stopper)
		if !ok {
			continue
		}
		// the same instance may be bound under several keys
		if isComparable(s) {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
		}
		if err := s.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", order[i], err))
		}
	}
	return errors.Join(errs...)
}

// isComparable checks the dynamic value: a struct type with an interface
// field is comparable while a value holding a slice in that field is not.
func isComparable(v any) bool {
	return reflect.ValueOf(v).Comparable()
}

// isNil reports nil interfaces and typed nils wrapped in an interface
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

const (
	unvisited = iota
	visiting
	done
)

// builder resolves bindings depth first while a container is being built
type builder struct {
	entries   map[string]*entry
	instances map[string]any
	state     map[string]int
	stack     []string
	created   []string
}

func (b *builder) Resolve(name string) (any, error) {
	switch b.state[name] {
	case done:
		return b.instances[name], nil
	case visiting:
		cycle := append(b.cyclePath(name), name)
		return nil, errors.Newf(errors.ErrorTypeConfig, "circular binding: %s", strings.Join(cycle, " -> ")).
			WithDetail("cycle", cycle)
	}

	e, ok := b.entries[name]
	if !ok {
		msg := fmt.Sprintf("no binding for %s", name)
		if len(b.stack) > 0 {
			msg += fmt.Sprintf(" (required by %s)", b.stack[len(b.stack)-1])
		}
		return nil, errors.New(errors.ErrorTypeConfig, msg)
	}

	b.state[name] = visiting
	b.stack = append(b.stack, name)
	v, err := e.provide(b)
	b.stack = b.stack[:len(b.stack)-1]
	if err != nil {
		b.state[name] = unvisited
		return nil, wrapConfig(err, fmt.Sprintf("provider for %s (module %s) failed", name, e.module))
	}
	if isNil(v) {
		b.state[name] = unvisited
		return nil, errors.Newf(errors.ErrorTypeConfig, "provider for %s (module %s) returned nil", name, e.module)
	}

	b.state[name] = done
	b.instances[name] = v
	b.created = append(b.created, name)
	return v, nil
}

func (b *builder) cyclePath(name string) []string {
	for i, k := range b.stack {
		if k == name {
			return append([]string(nil), b.stack[i:]...)
		}
	}
	return []string{name}
}

func (b *builder) rollback() {
	_ = stopAll(b.created, b.instances)
}
