package container

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/falcon/framework/config"
	"github.com/km-arc/falcon/framework/singleton"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// Extender decorates a freshly built instance and returns the value to use.
type Extender func(instance any, c *Container) any

// binding holds the recipe for an identifier and whether its result is shared.
// concrete is either a type name (string) or a Factory.
type binding struct {
	concrete any
	shared   bool
}

// BindingInfo describes one registered binding.
type BindingInfo struct {
	ID       string `json:"id"`
	Concrete string `json:"concrete"`
	Shared   bool   `json:"shared"`
	Resolved bool   `json:"resolved"`
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps identifiers to construction recipes and builds object graphs
// by resolving constructor parameters from their declared types.
//
// It supports:
//   - Bind / Singleton / Instance / Alias (first registration wins)
//   - Get (nil on failure) / Make (strict) / Resolve[T] (typed)
//   - Extend / AfterResolving (hooks on freshly built instances)
//   - Tag / Tagged (named groups of identifiers)
//   - GetMethod (call a method with resolved arguments)
//   - RunProviders (two-phase provider bootstrap)
type Container struct {
	singleton.Base

	mu sync.RWMutex

	// id → binding
	bindings map[string]*binding

	// id → resolved shared instance
	instances map[string]any

	// alias → id
	aliases map[string]string

	extenders      map[string][]Extender
	tags           map[string][]string
	afterResolving []func(id string, instance any)

	types   *TypeRegistry
	log     *zap.Logger
	metrics *Metrics

	loadProviders func(path string) ([]string, error)
}

// Option configures a Container.
type Option func(*Container)

// WithTypes sets the registry used to build identifiers that name types.
func WithTypes(r *TypeRegistry) Option {
	return func(c *Container) { c.types = r }
}

// WithLogger sets the logger used for swallowed resolution failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithMetrics enables resolution and provider counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// WithProviderLoader replaces the provider list source used by RunProviders.
func WithProviderLoader(fn func(path string) ([]string, error)) Option {
	return func(c *Container) { c.loadProviders = fn }
}

// New creates an empty container. Unless overridden it builds types from
// DefaultTypes and logs to zap.L().
func New(opts ...Option) *Container {
	c := &Container{
		bindings:      make(map[string]*binding),
		instances:     make(map[string]any),
		aliases:       make(map[string]string),
		extenders:     make(map[string][]Extender),
		tags:          make(map[string][]string),
		types:         DefaultTypes(),
		log:           zap.L(),
		loadProviders: config.LoadProviders,
	}
	c.Configure(opts...)

	// The container resolves to itself, by name and by type.
	c.instances["container"] = c
	c.instances[NameOf[Container]()] = c
	return c
}

// Default returns the process-wide container. Reach for it only at the
// composition root; everything else should receive a *Container.
func Default() *Container {
	return singleton.Get(newDefault)
}

func newDefault() *Container { return New() }

// Configure applies options to an existing container. It is meant for the
// composition root, but it is safe to call while other goroutines resolve.
func (c *Container) Configure(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, opt := range opts {
		opt(c)
	}
}

// Types returns the registry the container builds types from.
func (c *Container) Types() *TypeRegistry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.types
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

func (c *Container) meter() *Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient recipe: every Get builds a new value.
//
// concrete is nil (id names a registered type), a type name, a Factory or a
// func(*Container) any. Binding an id twice keeps the first recipe.
//
//	c.Bind(container.NameOf[UserRepository](), container.NameOf[SQLUserRepository]())
//	c.Bind("clock", func(c *container.Container) any { return time.Now })
func (c *Container) Bind(id string, concrete any) {
	c.bind(id, concrete, false)
}

// Singleton registers a recipe whose result is cached after first resolution.
//
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.NewRedis(container.MustResolve[*config.Config](c, "config"))
//	})
func (c *Container) Singleton(id string, concrete any) {
	c.bind(id, concrete, true)
}

// Instance registers a pre-built value as the shared instance of id, unless id
// is already bound, resolved or aliased.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(id string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known(id) {
		return
	}
	c.instances[id] = value
}

// Alias makes alias resolve exactly like id. An alias that is already bound
// or aliased is left untouched.
//
//	c.Alias(container.NameOf[SMTPMailer](), "mailer")
func (c *Container) Alias(id, alias string) {
	if id == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", id))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.aliases[alias]; ok {
		return
	}
	if _, ok := c.bindings[alias]; ok {
		return
	}
	target := c.canonical(id)
	if target == alias {
		panic(fmt.Sprintf("container: aliasing [%s] to [%s] makes a loop", id, alias))
	}
	c.aliases[alias] = target
}

// Extend registers a decorator applied, in registration order, to every
// instance built for id from now on. An instance already cached keeps the
// value it was stored with.
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return instance.(*zap.Logger).Named("http")
//	})
func (c *Container) Extend(id string, fn Extender) {
	if fn == nil {
		panic(fmt.Sprintf("container: nil extender for [%s]", id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	c.extenders[key] = append(c.extenders[key], fn)
}

// Tag adds ids to the group tag.
//
//	c.Tag([]string{"reports.cpu", "reports.memory"}, "reports")
func (c *Container) Tag(ids []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], ids...)
}

// Tagged resolves every id of tag through Get, in tagging order. Ids that
// resolve to nil are left out.
func (c *Container) Tagged(tag string) []any {
	c.mu.RLock()
	ids := slices.Clone(c.tags[tag])
	c.mu.RUnlock()

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if instance := c.Get(id); instance != nil {
			out = append(out, instance)
		}
	}
	return out
}

// AfterResolving registers a callback fired each time an instance is built.
// Cache hits do not fire it.
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	if cb == nil {
		panic("container: nil after-resolving callback")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) bind(id string, concrete any, shared bool) {
	b := &binding{concrete: normalizeConcrete(id, concrete), shared: shared}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bindings[id]; ok {
		return
	}
	c.bindings[id] = b
}

func normalizeConcrete(id string, concrete any) any {
	switch v := concrete.(type) {
	case nil:
		return id
	case string:
		if v == "" {
			return id
		}
		return v
	case Factory:
		if v == nil {
			panic(fmt.Sprintf("container: nil factory for [%s]", id))
		}
		return v
	case func(*Container) any:
		if v == nil {
			panic(fmt.Sprintf("container: nil factory for [%s]", id))
		}
		return Factory(v)
	default:
		panic(fmt.Sprintf("container: unsupported concrete %T for [%s]", concrete, id))
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether id, or the id it aliases, has a binding.
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[c.canonical(id)]
	return ok
}

// Resolved reports whether id, or the id it aliases, holds a cached shared
// instance.
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(id)]
	return ok
}

// known reports whether id is bound, cached or aliased. Callers hold mu.
func (c *Container) known(id string) bool {
	if _, ok := c.bindings[id]; ok {
		return true
	}
	if _, ok := c.instances[id]; ok {
		return true
	}
	_, ok := c.aliases[id]
	return ok
}

// canonical follows aliases to the id they stand for. Alias refuses loops, so
// the walk ends. Callers hold mu.
func (c *Container) canonical(id string) string {
	for {
		target, ok := c.aliases[id]
		if !ok {
			return id
		}
		id = target
	}
}

// Bindings returns every binding, sorted by id (for debugging).
func (c *Container) Bindings() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BindingInfo, 0, len(c.bindings))
	for id, b := range c.bindings {
		_, resolved := c.instances[id]
		out = append(out, BindingInfo{
			ID:       id,
			Concrete: describe(b.concrete),
			Shared:   b.shared,
			Resolved: resolved,
		})
	}
	slices.SortFunc(out, func(a, b BindingInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Binding returns the description of a single binding.
func (c *Container) Binding(id string) (BindingInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[id]
	if !ok {
		return BindingInfo{}, false
	}
	_, resolved := c.instances[id]
	return BindingInfo{ID: id, Concrete: describe(b.concrete), Shared: b.shared, Resolved: resolved}, true
}

func describe(concrete any) string {
	if name, ok := concrete.(string); ok {
		return name
	}
	return "factory"
}

// store caches instance under id unless another resolution got there first,
// and returns whichever instance is cached.
func (c *Container) store(id string, instance any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[id]; ok {
		return existing
	}
	c.instances[id] = instance
	return instance
}
