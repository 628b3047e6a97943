package handlers

import (
	"net/http"

	"github.com/diagnosis/shuttle-bookings/internal/http/response"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

func (h *Handlers) AddSlot(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.AddSlotReq
	if !h.decode(w, r, &req) {
		return
	}

	slot, err := h.scheduleService.AddSlot(r.Context(), sess, &req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handlers) ListSchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	slots, err := h.scheduleService.ListSchedule(r.Context(), sess)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handlers) ListAllBookings(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListAll(r.Context(), sess)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// ListUsers never exposes credentials; domain.User drops Password on encode.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	users, err := h.authService.ListUsers(r.Context(), sess)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
