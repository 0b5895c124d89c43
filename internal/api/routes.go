package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/experiment-engine/internal/auth"
)

// SetupRoutes configures the router. The health endpoint is open; every
// /api route goes through the token middleware (a no-op when no tokens
// are configured).
func SetupRoutes(h *Handlers, hc *HealthChecker, authn *auth.TokenAuthenticator) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", hc.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		if authn != nil {
			r.Use(authn.Middleware)
		}

		r.Route("/experiments", func(r chi.Router) {
			r.Post("/", h.CreateExperiment)

			r.Route("/{experimentID}", func(r chi.Router) {
				r.Get("/", h.GetExperiment)

				// Lifecycle actions
				r.Post("/start", h.StartExperiment)
				r.Post("/pause", h.PauseExperiment)
				r.Post("/complete", h.CompleteExperiment)
				r.Post("/archive", h.ArchiveExperiment)

				r.Get("/assignment/{userID}", h.GetAssignment)
				r.Get("/results", h.GetResults)
			})
		})

		r.Post("/events", h.RecordEvent)
	})

	return r
}
