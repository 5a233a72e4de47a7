// Package api exposes the job host over HTTP and provides a client that
// drives a remote host through the same host.API interface.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BasePath prefixes every host endpoint.
const BasePath = "/api/v1"

// RouterOptions configures SetupRouter.
type RouterOptions struct {
	AllowedOrigins []string
}

// SetupRouter builds the chi router for the handler.
func SetupRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.HealthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/status", h.StatusHandler())

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/download", h.StartDownloadHandler())
			r.Post("/update", h.StartUpdateHandler())
		})

		r.Get("/sources", h.SourcesHandler())
		r.Get("/extensions", h.ExtensionsHandler())
		r.Post("/hosts", h.GenerateHandler())

		r.Route("/files", func(r chi.Router) {
			r.Get("/", h.OutputFilesHandler())
			r.Post("/open", h.OpenFolderHandler())
		})

		r.Route("/languages", func(r chi.Router) {
			r.Get("/", h.LanguagesHandler())
			r.Get("/{code}", h.StringsHandler())
		})

		r.Get("/history", h.HistoryHandler())
	})

	return r
}
