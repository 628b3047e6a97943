package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/diagnosis/shuttle-bookings/internal/http/response"
	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/service"
)

type sessionKey struct{}

type Handlers struct {
	authService     service.AuthService
	bookingService  service.BookingService
	scheduleService service.ScheduleService
	jwtSecret       string
	validate        *validator.Validate
}

func New(authService service.AuthService, bookingService service.BookingService, scheduleService service.ScheduleService, jwtSecret string) *Handlers {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Handlers{
		authService:     authService,
		bookingService:  bookingService,
		scheduleService: scheduleService,
		jwtSecret:       jwtSecret,
		validate:        v,
	}
}

// RequireSession decodes the bearer token into a domain.Session. With a
// non-empty role only that role gets through.
func (h *Handlers) RequireSession(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid or expired session", response.CodeInvalidToken)
				return
			}
			sessionRole, ok := domain.ParseRole(claims.Role)
			if !ok {
				response.WriteError(w, http.StatusUnauthorized, "invalid session role", response.CodeInvalidToken)
				return
			}
			if role != "" && sessionRole != role {
				response.Forbidden(w, "insufficient permissions")
				return
			}

			sess := domain.Session{Username: claims.Username, Role: sessionRole}
			ctx := logger.WithUsername(r.Context(), sess.Username)
			ctx = context.WithValue(ctx, sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) (domain.Session, bool) {
	sess, ok := r.Context().Value(sessionKey{}).(domain.Session)
	return sess, ok
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	response.JSON(w, statusCode, data)
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			response.WriteErrorWithDetails(w, http.StatusBadRequest, "validation failed", string(domain.ReasonInvalidInput), fields)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

var statusByReason = map[domain.Reason]int{
	domain.ReasonInvalidCredentials: http.StatusUnauthorized,
	domain.ReasonInvalidOldPassword: http.StatusBadRequest,
	domain.ReasonCutoffPassed:       http.StatusUnprocessableEntity,
	domain.ReasonDateInPast:         http.StatusUnprocessableEntity,
	domain.ReasonSlotNotFound:       http.StatusNotFound,
	domain.ReasonAlreadyBooked:      http.StatusConflict,
	domain.ReasonCapacityExceeded:   http.StatusConflict,
	domain.ReasonStoreUnavailable:   http.StatusServiceUnavailable,
	domain.ReasonInvalidInput:       http.StatusBadRequest,
	domain.ReasonForbidden:          http.StatusForbidden,
	domain.ReasonUserExists:         http.StatusConflict,
}

// writeRejection renders err with its reason code. Store failures keep
// their cause out of the response body.
func writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	reason, ok := domain.ReasonOf(err)
	if !ok {
		logger.ErrorContext(r.Context(), "unhandled error", logger.Err(err))
		response.InternalError(w, "internal error")
		return
	}

	status, ok := statusByReason[reason]
	if !ok {
		status = http.StatusBadRequest
	}
	message := err.Error()
	if reason == domain.ReasonStoreUnavailable {
		message = domain.ErrStoreUnavailable.Message
	}
	response.WriteError(w, status, message, string(reason))
}
