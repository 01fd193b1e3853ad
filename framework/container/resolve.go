package container

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id, returning nil when it cannot.
//
// An id that is neither bound nor a registered type yields nil silently. Any
// other failure is logged and also yields nil; use Make to see the error.
//
//	repo, _ := c.Get("UserRepository").(UserRepository)
func (c *Container) Get(id string) any {
	instance, err := c.Make(id)
	if err != nil {
		if !isAbsent(err, id) {
			c.Logger().Warn("container: resolution failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	return instance
}

// Make resolves id like Get but reports why it failed: *AbsentTypeError when
// id is unknown, *ResolutionError (possibly wrapping *NotInstantiableError)
// when building failed.
//
// Aliases are followed first. Shared instances are served from the cache. An
// unbound id that names a registered type is built directly, as if it were
// bound to itself.
func (c *Container) Make(id string) (any, error) {
	c.mu.RLock()
	key := c.canonical(id)
	metrics, types := c.metrics, c.types
	if instance, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		metrics.resolution(outcomeCached)
		return instance, nil
	}
	b, bound := c.bindings[key]
	c.mu.RUnlock()

	if !bound {
		if !types.Exists(key) {
			metrics.resolution(outcomeAbsent)
			return nil, &AbsentTypeError{ID: id}
		}
		return c.finish(key, key, false)
	}
	return c.finish(key, b.concrete, b.shared)
}

// finish builds id from concrete, runs the extenders of id over the result,
// caches it when shared and fires the after-resolving callbacks.
func (c *Container) finish(id string, concrete any, shared bool) (any, error) {
	metrics := c.meter()
	instance, err := c.resolve(id, concrete)
	if err != nil {
		metrics.resolution(outcomeFailed)
		return nil, &ResolutionError{ID: id, Err: err}
	}

	c.mu.RLock()
	extenders := slices.Clone(c.extenders[id])
	callbacks := slices.Clone(c.afterResolving)
	c.mu.RUnlock()

	for _, extend := range extenders {
		instance = extend(instance, c)
	}
	if shared && instance != nil {
		instance = c.store(id, instance)
	}
	metrics.resolution(outcomeResolved)

	for _, cb := range callbacks {
		cb(id, instance)
	}
	return instance, nil
}

// resolve builds concrete for id: a Factory is called with the container, a
// type name is built from its registered constructor, and any other id known
// to the container is resolved through Make.
func (c *Container) resolve(id string, concrete any) (any, error) {
	if f, ok := concrete.(Factory); ok {
		return f(c), nil
	}

	name := concrete.(string)
	info, ok := c.Types().lookup(name)
	if !ok {
		if name != id && c.isKnown(name) {
			return c.Make(name)
		}
		return nil, &AbsentTypeError{ID: name}
	}
	if info.abstract {
		return nil, &NotInstantiableError{Type: name}
	}
	if !info.ctor.IsValid() {
		return reflect.New(info.out.Elem()).Interface(), nil
	}

	args, err := c.dependencies(info.params)
	if err != nil {
		return nil, err
	}

	out := call(info.ctor, args, info.variadic)
	if info.returnsErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return interfaceOf(out[0]), nil
}

func (c *Container) isKnown(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.known(id)
}

// dependencies assembles the argument list for params. Builtin parameters
// take their declared default or the zero value; every other parameter is
// resolved through Get using the name of its type.
func (c *Container) dependencies(params []param) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(params))
	for i, p := range params {
		if isBuiltin(p.typ) {
			if p.def.IsValid() {
				args[i] = p.def
			} else {
				args[i] = reflect.Zero(p.typ)
			}
			continue
		}

		arg, err := assign(c.Get(TypeName(p.typ)), p.typ)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		args[i] = arg
	}
	return args, nil
}

// assign adapts a resolved dependency to the parameter type t. A *T feeds a
// T parameter and a T feeds a *T parameter; nil becomes the zero value.
func assign(dep any, t reflect.Type) (reflect.Value, error) {
	if dep == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(dep)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(t):
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		return v.Elem(), nil
	case t.Kind() == reflect.Pointer && v.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
}

func call(fn reflect.Value, args []reflect.Value, variadic bool) []reflect.Value {
	if variadic {
		return fn.CallSlice(args)
	}
	return fn.Call(args)
}

// interfaceOf unwraps v, turning nil pointers, maps and the like into an
// untyped nil so callers can compare the result against nil.
func interfaceOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func isAbsent(err error, id string) bool {
	absent, ok := err.(*AbsentTypeError)
	return ok && absent.ID == id
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	instance, err := c.Make(id)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &ResolutionError{ID: id, Err: fmt.Errorf("resolved to %T, want %s", instance, reflect.TypeFor[T]())}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](c *Container, id string) T {
	typed, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return typed
}
