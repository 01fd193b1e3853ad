// Package container provides a string-keyed IoC (Inversion of Control)
// container that builds object graphs from constructor parameter types, and
// a two-phase service provider bootstrap.
//
// # Identifiers and types
//
// Every binding is keyed by a string. The identifier of a Go type is its
// package path and name, pointers dereferenced:
//
//	container.NameOf[*mail.SMTPMailer]()  // "example.com/app/mail.SMTPMailer"
//
// Go cannot find a type by name at runtime, so types the container should
// build on its own are registered in a TypeRegistry, typically from init:
//
//	func init() {
//	    types := container.DefaultTypes()
//	    types.Constructor(NewSMTPMailer, container.WithDefault(1, 587))
//	    container.RegisterStruct[Clock](types)
//	    container.RegisterInterface[Mailer](types)
//	}
//
// # Bindings
//
//	// Transient — new instance every Get()
//	c.Bind(container.NameOf[Mailer](), container.NameOf[SMTPMailer]())
//
//	// Shared — created once, reused
//	c.Singleton("cache", func(c *container.Container) any { return cache.New() })
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Another name for an identifier, or a binding that defers to one
//	c.Alias("cache", "store")
//	c.Bind("sessions", "cache")
//
// The first registration of an identifier wins; later Bind calls are no-ops.
//
// # Hooks and tags
//
//	c.Extend("cache", func(v any, c *container.Container) any { return cache.WithStats(v.(cache.Cache)) })
//	c.AfterResolving(func(id string, v any) { log.Debug("built", zap.String("id", id)) })
//
//	c.Tag([]string{"reports.cpu", "reports.memory"}, "reports")
//	reports := c.Tagged("reports")
//
// Extenders and callbacks run on freshly built instances only, never on
// cache hits.
//
// # Resolving
//
// Constructor parameters whose type is named and declared in a package are
// resolved recursively with Get. Builtin parameters (int, string, []byte,
// error) take their WithDefault value or the zero value.
//
//	raw := c.Get("cache")                     // nil if it cannot be built
//	v, err := c.Make("cache")                 // same, with the reason
//	m, err := container.Resolve[Mailer](c, container.NameOf[Mailer]())
//	out, err := c.GetMethod(container.NameOf[ReportJob](), "Run")
//
// The container performs no cycle detection: a constructor graph where A
// needs B and B needs A recurses until the goroutine stack is exhausted.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func NewAppServiceProvider(app *container.Container) *AppServiceProvider {
//	    return &AppServiceProvider{BaseProvider: container.NewBaseProvider(app)}
//	}
//
//	func (p *AppServiceProvider) Register() {
//	    p.App().Singleton("mailer", container.NameOf[SMTPMailer]())
//	}
//
//	func (p *AppServiceProvider) Boot() {
//	    // safe to resolve other bindings here
//	}
//
//	container.DefaultTypes().Constructor(NewAppServiceProvider)
//	err := c.RunProviders("config/providers.yaml")
package container
