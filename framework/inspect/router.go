// Package inspect serves a read-only HTTP view of a container: its bindings,
// its registered types and its metrics.
package inspect

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/falcon/framework/container"
)

// Router exposes the container over HTTP.
//
//	GET /bindings        → every binding
//	GET /bindings/{id}   → one binding
//	GET /types           → registered type names
//	GET /metrics         → Prometheus metrics
type Router struct {
	mux chi.Router
	app *container.Container
}

// NewRouter creates a Router with sane defaults (Recoverer, RealIP). A nil
// gatherer leaves /metrics unmounted.
func NewRouter(app *container.Container, gatherer prometheus.Gatherer) *Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	rt := &Router{mux: r, app: app}
	r.Get("/bindings", rt.bindings)
	r.Get("/bindings/*", rt.binding)
	r.Get("/types", rt.types)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return rt
}

func (rt *Router) bindings(w http.ResponseWriter, _ *http.Request) {
	NewResponse(w).Success(rt.app.Bindings())
}

func (rt *Router) binding(w http.ResponseWriter, req *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(req, "*"))
	if err != nil {
		NewResponse(w).NotFound()
		return
	}
	info, ok := rt.app.Binding(id)
	if !ok {
		NewResponse(w).NotFound("No binding for [" + id + "].")
		return
	}
	NewResponse(w).Success(info)
}

func (rt *Router) types(w http.ResponseWriter, _ *http.Request) {
	NewResponse(w).Success(rt.app.Types().Names())
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.mux.ServeHTTP(w, req)
}
