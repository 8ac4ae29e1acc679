/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the front office UI

ROUTE GROUPS:
  /api/forms/{kind}/*   Form lifecycle (demand, transfer, return,
                        maintenance, stock_entry)
  /api/holdings         Possession report
  /api/items            Item catalog
  /api/patients/*       Dose scheduling
  /api/calendar/*       BS calendar utilities

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Form routes
		r.Route("/forms/{kind}", func(r chi.Router) {
			r.Get("/", h.ListForms)
			r.Post("/", h.CreateForm)
			r.Get("/{id}", h.GetForm)
			r.Delete("/{id}", h.DeleteForm)
			r.Post("/{id}/transitions", h.ApplyTransition)
			r.Post("/{id}/seen", h.MarkSeen)
		})

		// Reports
		r.Get("/holdings", h.GetHoldings)

		// Catalog routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
		})

		// Patient routes
		r.Route("/patients", func(r chi.Router) {
			r.Get("/", h.ListPatients)
			r.Post("/", h.RegisterPatient)
			r.Get("/{id}", h.GetPatient)
			r.Post("/{id}/doses/{n}/confirm", h.ConfirmDose)
		})

		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/convert", h.ConvertDate)
			r.Get("/today", h.Today)
		})
	})

	return r
}
