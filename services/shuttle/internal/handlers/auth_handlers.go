package handlers

import (
	"net/http"

	"github.com/diagnosis/shuttle-bookings/internal/http/response"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

// Login exchanges credentials for a session token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginReq
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.ChangePasswordReq
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), sess, req.Current, req.New); err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
