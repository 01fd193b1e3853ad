package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/km-arc/falcon/framework/config"
	"github.com/km-arc/falcon/framework/container"
	"github.com/km-arc/falcon/framework/inspect"
)

// Instance ids the application seeds before running providers.
const (
	ConfigID    = "config"
	LoggerID    = "logger"
	MetricsID   = "metrics"
	InspectorID = "inspector"
)

func init() {
	types := container.DefaultTypes()
	types.Constructor(NewConfigServiceProvider)
	types.Constructor(NewLoggingServiceProvider)
	types.Constructor(NewInspectServiceProvider)
	types.Constructor(inspect.NewRouter)
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider makes the application configuration injectable by
// type, so constructors can simply ask for a *config.Config.
//
// Bound abstracts:
//   - NameOf[config.Config]()  → the "config" instance
type ConfigServiceProvider struct {
	container.BaseProvider
}

func NewConfigServiceProvider(app *container.Container) *ConfigServiceProvider {
	return &ConfigServiceProvider{BaseProvider: container.NewBaseProvider(app)}
}

func (p *ConfigServiceProvider) Register() {
	p.App().Singleton(container.NameOf[config.Config](), func(c *container.Container) any {
		return c.Get(ConfigID)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider makes the application logger injectable by type.
//
// Bound abstracts:
//   - NameOf[zap.Logger]()  → the "logger" instance
type LoggingServiceProvider struct {
	container.BaseProvider
}

func NewLoggingServiceProvider(app *container.Container) *LoggingServiceProvider {
	return &LoggingServiceProvider{BaseProvider: container.NewBaseProvider(app)}
}

func (p *LoggingServiceProvider) Register() {
	p.App().Singleton(container.NameOf[zap.Logger](), func(c *container.Container) any {
		return c.Get(LoggerID)
	})
}

// Boot reports how many bindings the register phase produced.
func (p *LoggingServiceProvider) Boot() {
	logger, ok := p.App().Get(container.NameOf[zap.Logger]()).(*zap.Logger)
	if !ok {
		return
	}
	logger.Info("container booted", zap.Int("bindings", len(p.App().Bindings())))
}

// ── InspectServiceProvider ────────────────────────────────────────────────────

// InspectServiceProvider registers the HTTP inspector.
//
// Bound abstracts:
//   - NameOf[prometheus.Gatherer]()  → the "metrics" instance
//   - "inspector"                    → *inspect.Router, built from inspect.NewRouter
type InspectServiceProvider struct {
	container.BaseProvider
}

func NewInspectServiceProvider(app *container.Container) *InspectServiceProvider {
	return &InspectServiceProvider{BaseProvider: container.NewBaseProvider(app)}
}

func (p *InspectServiceProvider) Register() {
	app := p.App()
	app.Singleton(container.NameOf[prometheus.Gatherer](), func(c *container.Container) any {
		return c.Get(MetricsID)
	})
	app.Singleton(InspectorID, container.NameOf[inspect.Router]())
}
