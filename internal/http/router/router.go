// Package router builds the HTTP route table.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/students-api/internal/http/handlers/student"
	"github.com/aanand-mishra/students-api/internal/http/handlers/system"
	"github.com/aanand-mishra/students-api/internal/http/middleware"
	"github.com/aanand-mishra/students-api/internal/storage"
)

// New returns the application handler. Metrics are registered on reg and
// exposed from gatherer at /metrics.
//
//	GET    /               liveness message
//	GET    /health         load balancer probe
//	GET    /metrics        Prometheus exposition
//	POST   /students/      create a student
//	GET    /students/      list students
//	GET    /students/{id}  get one student
//	PUT    /students/{id}  partially update a student
//	DELETE /students/{id}  delete a student
func New(store storage.Storage, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) http.Handler {
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		metrics.Handler,
		middleware.Logger(log),
		metrics.Recoverer(log),
		// /students and /students/ are the same collection.
		chimw.StripSlashes,
	)

	r.Get("/", system.Root())
	r.Get("/health", system.Health())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/students", func(r chi.Router) {
		r.Post("/", student.New(store))
		r.Get("/", student.GetList(store))
		r.Get("/{id}", student.GetByID(store))
		r.Put("/{id}", student.Update(store))
		r.Delete("/{id}", student.Delete(store))
	})

	return r
}
