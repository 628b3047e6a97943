package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

// Mount registers every shuttle route on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession(""))
		r.Get("/slots", h.Slots)
		r.Post("/bookings", h.CreateBooking)
		r.Get("/bookings/mine", h.MyBookings)
		r.Post("/password", h.ChangePassword)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireSession(domain.RoleAdmin))
		r.Post("/schedule", h.AddSlot)
		r.Get("/schedule", h.ListSchedule)
		r.Get("/bookings", h.ListAllBookings)
		r.Get("/users", h.ListUsers)
	})
}
