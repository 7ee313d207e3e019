// Package router assembles the HTTP surface.
//
// Route table:
//
//	GET  /info          → request echo
//	GET  /mysql         → list all students (worker pool)
//	GET  /mysql/{id}    → one student, empty body if absent
//	POST /mysql         → insert
//	PUT  /mysql/{id}    → update
//	GET  /metrics       → Prometheus (unless disabled)
//	GET  /*             → static files from the web root
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-webserver/internal/http/handlers/info"
	"github.com/aanand-mishra/student-webserver/internal/http/handlers/student"
	"github.com/aanand-mishra/student-webserver/internal/http/middleware"
	"github.com/aanand-mishra/student-webserver/internal/storage"
	"github.com/aanand-mishra/student-webserver/internal/worker"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// idPattern matches the numeric {id} segment.
const idPattern = "/mysql/{id:[0-9]+}"

// Deps are the collaborators the routes need.
type Deps struct {
	Store  storage.Storage
	Pool   *worker.Pool
	Format student.Format
	Static http.Handler
	Logger *slog.Logger

	// Registry receives the HTTP metrics and is exposed at MetricsPath.
	// A nil Registry disables both.
	Registry    *prometheus.Registry
	MetricsPath string
}

// New returns the root handler.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestLogger(middleware.LoggingConfig{
		Logger:    d.Logger,
		SkipPaths: []string{d.MetricsPath},
	}))
	if d.Registry != nil {
		r.Use(middleware.NewMetrics(d.Registry).Middleware)
	}

	r.Get("/info", info.Handler())

	r.Get("/mysql", student.GetList(d.Store, d.Pool, d.Format))
	r.Get(idPattern, student.GetByID(d.Store, d.Format))
	r.Post("/mysql", student.New(d.Store))
	r.Put(idPattern, student.Update(d.Store))

	if d.Registry != nil && d.MetricsPath != "" {
		r.Method(http.MethodGet, d.MetricsPath,
			promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}

	if d.Static != nil {
		r.Method(http.MethodGet, "/*", d.Static)
	}

	return r
}
