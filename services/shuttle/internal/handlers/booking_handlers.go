package handlers

import (
	"net/http"

	"github.com/diagnosis/shuttle-bookings/internal/http/response"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

// Slots answers GET /slots?date=&office=&direction=.
func (h *Handlers) Slots(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	q := domain.AvailabilityQuery{
		Date:   r.URL.Query().Get("date"),
		Office: r.URL.Query().Get("office"),
	}
	if v := r.URL.Query().Get("direction"); v != "" {
		d, ok := domain.ParseDirection(v)
		if !ok {
			response.BadRequest(w, "direction must be toOffice or toSite")
			return
		}
		q.Direction = d
	}

	avail, err := h.bookingService.Availability(r.Context(), sess, q)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail.DTO())
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.BookingReq
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Commit(r.Context(), sess, &req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListMine(r.Context(), sess)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}
