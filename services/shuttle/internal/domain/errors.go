package domain

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable code attached to every rejection.
type Reason string

const (
	ReasonInvalidCredentials Reason = "INVALID_CREDENTIALS"
	ReasonInvalidOldPassword Reason = "INVALID_OLD_PASSWORD"
	ReasonCutoffPassed       Reason = "CUTOFF_PASSED"
	ReasonDateInPast         Reason = "DATE_IN_PAST"
	ReasonSlotNotFound       Reason = "SLOT_NOT_FOUND"
	ReasonAlreadyBooked      Reason = "ALREADY_BOOKED"
	ReasonCapacityExceeded   Reason = "CAPACITY_EXCEEDED"
	ReasonStoreUnavailable   Reason = "STORE_UNAVAILABLE"
	ReasonInvalidInput       Reason = "INVALID_INPUT"
	ReasonForbidden          Reason = "FORBIDDEN"
	ReasonUserExists         Reason = "USER_EXISTS"
)

type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// Is matches any rejection carrying the same reason, so a detailed
// rejection built with Reject still satisfies errors.Is(err, ErrX).
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

var (
	ErrInvalidCredentials = &Rejection{ReasonInvalidCredentials, "invalid username or password"}
	ErrInvalidOldPassword = &Rejection{ReasonInvalidOldPassword, "current password is incorrect"}
	ErrCutoffPassed       = &Rejection{ReasonCutoffPassed, "booking for tomorrow closes at the cutoff hour"}
	ErrDateInPast         = &Rejection{ReasonDateInPast, "cannot book a date in the past"}
	ErrSlotNotFound       = &Rejection{ReasonSlotNotFound, "no such slot on the schedule"}
	ErrAlreadyBooked      = &Rejection{ReasonAlreadyBooked, "already booked in this direction for the date"}
	ErrCapacityExceeded   = &Rejection{ReasonCapacityExceeded, "slot is full"}
	ErrStoreUnavailable   = &Rejection{ReasonStoreUnavailable, "store unavailable"}
	ErrInvalidInput       = &Rejection{ReasonInvalidInput, "invalid input"}
	ErrForbidden          = &Rejection{ReasonForbidden, "insufficient permissions"}
	ErrUserExists         = &Rejection{ReasonUserExists, "username already taken"}
)

// Reject returns a rejection with base's reason and a specific message.
func Reject(base *Rejection, format string, args ...any) error {
	return &Rejection{Reason: base.Reason, Message: fmt.Sprintf(format, args...)}
}

// StoreError tags a backend failure as StoreUnavailable, keeping the cause.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// ReasonOf extracts the reason code from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
