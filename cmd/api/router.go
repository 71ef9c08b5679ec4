package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
)

type routes struct {
	health   *handlers.HealthHandler
	leads    *handlers.LeadHandler
	upload   *handlers.UploadHandler
	workflow *handlers.WorkflowHandler
	export   *handlers.ExportHandler
	limiter  *handlers.RateLimiter
}

func newRouter(rt routes, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.health.Handle)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", rt.leads.List)
			r.With(rt.limiter.Middleware).Post("/", rt.leads.Create)
			r.Get("/export.xlsx", rt.export.Handle)
			r.Get("/{id}", rt.leads.Get)
			r.Put("/{id}", rt.leads.Update)
			r.Delete("/{id}", rt.leads.Delete)
			r.Post("/{id}/email", rt.leads.SendEmail)
		})

		r.With(rt.limiter.Middleware).Post("/upload", rt.upload.Handle)
		r.Post("/workflow/execute", rt.workflow.Handle)
	})

	return r
}
