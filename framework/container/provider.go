package container

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider bootstraps a subsystem in two phases.
//
// Register is called on every provider before any provider's Boot, so Boot
// may resolve anything registered by the others.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func NewMailProvider(app *container.Container) *MailProvider {
//	    return &MailProvider{BaseProvider: container.NewBaseProvider(app)}
//	}
//
//	func (p *MailProvider) Register() {
//	    p.App().Singleton("mailer", container.NameOf[SMTPMailer]())
//	}
type Provider interface {
	// Register binds services into the container.
	Register()

	// Boot is called after all providers are registered.
	Boot()
}

var providerType = reflect.TypeFor[Provider]()

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Register and Boot that
// carries the container. Providers registered without a constructor get the
// container attached before Register runs.
type BaseProvider struct {
	app *Container
}

// NewBaseProvider returns a BaseProvider bound to app.
func NewBaseProvider(app *Container) BaseProvider {
	return BaseProvider{app: app}
}

func (p *BaseProvider) Register() {}
func (p *BaseProvider) Boot()     {}

// App returns the container the provider was built for.
func (p *BaseProvider) App() *Container { return p.app }

func (p *BaseProvider) attach(app *Container) {
	if p.app == nil {
		p.app = app
	}
}

// containerAware is satisfied by pointers to structs embedding BaseProvider.
type containerAware interface {
	attach(app *Container)
}

// ── Provider state ────────────────────────────────────────────────────────────

// ProviderState is where a provider is in the bootstrap pass.
type ProviderState int

const (
	// StateUntracked is the state of providers the registry does not track:
	// never added, or already booted.
	StateUntracked ProviderState = iota
	StateConstructed
	StateRegistered
	StateBooted
)

func (s ProviderState) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRegistered:
		return "registered"
	case StateBooted:
		return "booted"
	default:
		return "untracked"
	}
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

type providerEntry struct {
	provider Provider
	state    ProviderState
}

// ProviderRegistry runs one bootstrap pass over an ordered set of providers.
// Providers are tracked by identity: adding the same instance twice is a
// no-op, while distinct instances of one type are all tracked.
type ProviderRegistry struct {
	app     *Container
	entries []*providerEntry
	index   map[Provider]*providerEntry // comparable providers only
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:   app,
		index: make(map[Provider]*providerEntry),
	}
}

// Add tracks provider and reports whether it was not tracked already.
func (r *ProviderRegistry) Add(provider Provider) bool {
	if r.find(provider) != nil {
		return false
	}
	if aware, ok := provider.(containerAware); ok {
		aware.attach(r.app)
	}

	e := &providerEntry{provider: provider, state: StateConstructed}
	r.entries = append(r.entries, e)
	if hashable(provider) {
		r.index[provider] = e
	}
	return true
}

// Run calls Register on every tracked provider in order, then Boot on every
// one in the same order. Each provider stops being tracked as soon as its
// Boot returns.
func (r *ProviderRegistry) Run() {
	metrics := r.app.meter()
	for _, e := range r.snapshot() {
		e.provider.Register()
		e.state = StateRegistered
		metrics.providerPhase("register")
	}

	for _, e := range r.snapshot() {
		if e.state != StateRegistered {
			continue
		}
		e.provider.Boot()
		e.state = StateBooted
		metrics.providerPhase("boot")
		r.untrack(e)
	}
}

// Tracked returns the providers not yet booted, in order.
func (r *ProviderRegistry) Tracked() []Provider {
	out := make([]Provider, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.provider)
	}
	return out
}

// State reports where provider is in the pass.
func (r *ProviderRegistry) State(provider Provider) ProviderState {
	if e := r.find(provider); e != nil {
		return e.state
	}
	return StateUntracked
}

// Len returns the number of tracked providers.
func (r *ProviderRegistry) Len() int { return len(r.entries) }

func (r *ProviderRegistry) snapshot() []*providerEntry {
	return append([]*providerEntry(nil), r.entries...)
}

func (r *ProviderRegistry) find(provider Provider) *providerEntry {
	if hashable(provider) {
		return r.index[provider]
	}
	return nil
}

func (r *ProviderRegistry) untrack(e *providerEntry) {
	for i, cur := range r.entries {
		if cur == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	if hashable(e.provider) {
		delete(r.index, e.provider)
	}
}

// hashable reports whether provider can key a map without panicking. The
// dynamic value is checked, so a struct whose interface field holds a slice
// is not hashable. Other providers are always tracked separately.
func hashable(provider Provider) bool {
	return provider != nil && reflect.ValueOf(provider).Comparable()
}

// ── Orchestration ─────────────────────────────────────────────────────────────

// RunProviders loads the ordered provider type names from path and runs them
// through RunProviderList.
//
//	if err := app.RunProviders("config/providers.yaml"); err != nil { ... }
func (c *Container) RunProviders(path string) error {
	ids, err := c.loadProviders(path)
	if err != nil {
		return fmt.Errorf("container: load providers: %w", err)
	}
	return c.RunProviderList(ids)
}

// RunProviderList builds every id naming a registered type that implements
// Provider, skipping the others, then registers all of them and boots all
// of them. Providers are built fresh, never taken from bindings.
func (c *Container) RunProviderList(ids []string) error {
	registry := NewProviderRegistry(c)
	types, log := c.Types(), c.Logger()

	for _, id := range ids {
		info, ok := types.lookup(id)
		if !ok || info.abstract || !info.out.Implements(providerType) {
			log.Debug("container: skipping non-provider", zap.String("id", id))
			continue
		}

		instance, err := c.resolve(id, id)
		if err != nil {
			return &ResolutionError{ID: id, Err: err}
		}
		provider, ok := instance.(Provider)
		if !ok {
			return &ResolutionError{ID: id, Err: fmt.Errorf("constructor returned %T", instance)}
		}
		registry.Add(provider)
	}

	count := registry.Len()
	registry.Run()
	log.Debug("container: providers booted", zap.Int("count", count))
	return nil
}
