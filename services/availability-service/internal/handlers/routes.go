package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Routes struct {
	Availability *AvailabilityHandler
	Blocked      *BlockedHandler
	Schedules    *ScheduleHandler
	// RequireAuth guards the customer routes.
	RequireAuth func(http.Handler) http.Handler
}

// Mount registers the service API under /api/v1.
func Mount(r chi.Router, rt Routes) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/public", func(r chi.Router) {
			r.Post("/users/{username}/availability", rt.Availability.ForUser)
			r.Post("/availability", rt.Availability.ForCustomer)
		})
		r.Route("/customers", func(r chi.Router) {
			r.Use(rt.RequireAuth)
			r.Get("/blocked", rt.Blocked.List)
			r.Post("/blocked", rt.Blocked.Create)
			r.Delete("/blocked/{id}", rt.Blocked.Delete)
			r.Put("/schedules/{id}", rt.Schedules.Put)
		})
	})
}
