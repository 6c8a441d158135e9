/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Tenant:     X-Tenant-ID into the request context (/api only)

ROUTE GROUPS:
  /api/workers, /api/tasks, /api/equipment, /api/roles   Catalogs
  /api/roster                                            Bulk import/export
  /api/weeks/*                                           Planning
  /api/scenarios/*                                       Demo scenarios
  /api/reset                                             Database reset (dev only)
  /metrics                                               Prometheus scrape
  /healthz                                               Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// CORSOrigins defaults to the local frontend dev servers.
	CORSOrigins []string

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", TenantHeader},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(withTenant)

		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.SaveWorker)
			r.Put("/{id}", h.SaveWorker)
			r.Delete("/{id}", h.DeleteWorker)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.SaveTask)
			r.Put("/{id}", h.SaveTask)
			r.Delete("/{id}", h.DeleteTask)
		})

		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", h.ListEquipment)
			r.Post("/", h.SaveEquipment)
			r.Put("/{id}", h.SaveEquipment)
			r.Delete("/{id}", h.DeleteEquipment)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.SaveRole)
		})

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.ExportRoster)
			r.Post("/", h.ImportRoster)
		})

		// Week routes
		r.Route("/weeks", func(r chi.Router) {
			r.Get("/", h.ListWeeks)
			r.Route("/{week}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Post("/generate", h.GeneratePlan)
				r.Put("/workers/{id}", h.EditPlan)
				r.Post("/equipment", h.AssignEquipment)
				r.Get("/report", h.GetReport)
				r.Get("/export.xlsx", h.ExportXLSX)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
