package container

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"sync"
)

var errorType = reflect.TypeFor[error]()

// ── Type registry ─────────────────────────────────────────────────────────────

// param is one declared constructor parameter.
type param struct {
	typ reflect.Type
	def reflect.Value // valid only when a default was declared
}

// typeInfo is everything the resolver knows about a registered type.
type typeInfo struct {
	name string
	// out is the type of the value the resolver hands back.
	out        reflect.Type
	ctor       reflect.Value
	params     []param
	variadic   bool
	returnsErr bool
	abstract   bool
}

// TypeOption adjusts a constructor registration.
type TypeOption func(*typeInfo)

// WithDefault declares the value passed for builtin parameter index when
// nothing else supplies it.
//
//	types.Constructor(NewMailer, container.WithDefault(1, 587))
func WithDefault(index int, value any) TypeOption {
	return func(ti *typeInfo) {
		if index < 0 || index >= len(ti.params) {
			panic(fmt.Sprintf("container: [%s] has no parameter %d", ti.name, index))
		}
		p := &ti.params[index]
		def, ok := fitDefault(reflect.ValueOf(value), p.typ)
		if !ok {
			panic(fmt.Sprintf("container: default %T does not fit parameter %d (%s) of [%s]", value, index, p.typ, ti.name))
		}
		p.def = def
	}
}

// fitDefault returns v as a value of type t. Assignable values pass as they
// are; numbers convert only within their kind family and only when t can hold
// them exactly.
func fitDefault(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(t) {
		return v, true
	}
	zero := reflect.Zero(t)
	switch {
	case isInt(v.Kind()) && isInt(t.Kind()):
		if zero.OverflowInt(v.Int()) {
			return reflect.Value{}, false
		}
	case isInt(v.Kind()) && isUint(t.Kind()):
		if v.Int() < 0 || zero.OverflowUint(uint64(v.Int())) {
			return reflect.Value{}, false
		}
	case isUint(v.Kind()) && isUint(t.Kind()):
		if zero.OverflowUint(v.Uint()) {
			return reflect.Value{}, false
		}
	case isUint(v.Kind()) && isInt(t.Kind()):
		if v.Uint() > math.MaxInt64 || zero.OverflowInt(int64(v.Uint())) {
			return reflect.Value{}, false
		}
	case isFloat(v.Kind()) && isFloat(t.Kind()):
		if zero.OverflowFloat(v.Float()) {
			return reflect.Value{}, false
		}
	case v.Kind() == t.Kind() && v.Type().ConvertibleTo(t):
		// Same kind under another name, e.g. string to a named string type.
	default:
		return reflect.Value{}, false
	}
	return v.Convert(t), true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// TypeRegistry maps type names to the recipes needed to build them. Go cannot
// look a type up by name at runtime, so every type the container is expected
// to build without an explicit factory is registered here first, usually from
// an init func next to the type.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]*typeInfo
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*typeInfo)}
}

var defaultTypes = NewTypeRegistry()

// DefaultTypes is the process-wide registry used by containers created
// without WithTypes.
func DefaultTypes() *TypeRegistry { return defaultTypes }

// Constructor registers a constructor and returns the identifier of the type
// it produces. ctor must be a func returning T or (T, error); its parameters
// are resolved when the type is built.
//
//	id := types.Constructor(NewUserService) // "example.com/app.UserService"
func (r *TypeRegistry) Constructor(ctor any, opts ...TypeOption) string {
	if ctor == nil {
		panic("container: nil constructor")
	}
	fn := reflect.ValueOf(ctor)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		panic(fmt.Sprintf("container: constructor must be a func, got %T", ctor))
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		panic(fmt.Sprintf("container: constructor %s must return T or (T, error)", ft))
	}

	info := &typeInfo{
		name:       TypeName(ft.Out(0)),
		out:        ft.Out(0),
		ctor:       fn,
		params:     make([]param, ft.NumIn()),
		variadic:   ft.IsVariadic(),
		returnsErr: ft.NumOut() == 2,
	}
	for i := range info.params {
		info.params[i] = param{typ: ft.In(i)}
	}
	for _, opt := range opts {
		opt(info)
	}

	r.add(info)
	return info.name
}

// RegisterStruct registers T as instantiable without a constructor; the
// resolver builds it with new(T).
func RegisterStruct[T any](r *TypeRegistry) string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		panic(fmt.Sprintf("container: %s is an interface, use RegisterInterface", t))
	}
	info := &typeInfo{name: TypeName(t), out: reflect.PointerTo(t)}
	r.add(info)
	return info.name
}

// RegisterInterface records that the contract T exists. It is never
// instantiable: bind its identifier to a concrete type or a factory.
func RegisterInterface[T any](r *TypeRegistry) string {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("container: %s is not an interface", t))
	}
	info := &typeInfo{name: TypeName(t), out: t, abstract: true}
	r.add(info)
	return info.name
}

// Exists reports whether name is a registered type.
func (r *TypeRegistry) Exists(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names returns every registered type name, sorted.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (r *TypeRegistry) lookup(name string) (*typeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.types[name]
	return info, ok
}

// add keeps the first registration of a name.
func (r *TypeRegistry) add(info *typeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[info.name]; ok {
		return
	}
	r.types[info.name] = info
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeName returns the identifier of t: pointers are dereferenced and named
// types are qualified by their package path. Unnamed types use t.String().
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, factory)
//	repo, err := container.Resolve[UserRepository](c, key)
func TypeKey(v any) string {
	return TypeName(reflect.TypeOf(v))
}

// NameOf returns the identifier of T.
func NameOf[T any]() string {
	return TypeName(reflect.TypeFor[T]())
}

// isBuiltin reports whether parameters of type t are left to defaults instead
// of being resolved: predeclared types (int, string, error) and unnamed ones
// ([]byte, map[string]any, func()).
func isBuiltin(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name() == "" || t.PkgPath() == ""
}
