package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/km-arc/falcon/framework/config"
	"github.com/km-arc/falcon/framework/container"
	"github.com/km-arc/falcon/framework/logging"
	"github.com/km-arc/falcon/framework/providers"
)

// Application is the composition root. It embeds the container so user code
// can call app.Bind(), app.Singleton(), app.Get() directly.
type Application struct {
	*container.Container
	Config  *config.Config
	Log     *zap.Logger
	Metrics *prometheus.Registry
}

// New loads configuration, builds the logger and metrics registry, wires
// them into c and seeds the "config", "logger" and "metrics" instances.
//
//	application, err := app.New(container.Default())
func New(c *container.Container, envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	c.Configure(
		container.WithLogger(logger),
		container.WithMetrics(container.NewMetrics(reg)),
	)
	c.Instance(providers.ConfigID, cfg)
	c.Instance(providers.LoggerID, logger)
	c.Instance(providers.MetricsID, reg)

	return &Application{
		Container: c,
		Config:    cfg,
		Log:       logger,
		Metrics:   reg,
	}, nil
}

// Boot runs the providers listed in the configured providers file.
func (a *Application) Boot() error {
	path := a.Config.Container.ProvidersFile
	a.Log.Debug("booting providers", zap.String("file", path))
	return a.RunProviders(path)
}

// Serve serves the inspector on INSPECT_ADDR until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	handler, ok := a.Get(providers.InspectorID).(http.Handler)
	if !ok {
		return fmt.Errorf("app: [%s] is not bound; add InspectServiceProvider to %s",
			providers.InspectorID, a.Config.Container.ProvidersFile)
	}

	srv := &http.Server{
		Addr:              a.Config.Container.InspectAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("inspector listening",
			zap.String("app", a.Config.App.Name),
			zap.String("env", a.Config.App.Env),
			zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
