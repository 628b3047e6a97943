package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch {
	case strings.EqualFold(s, string(BookingConfirmed)):
		return BookingConfirmed, true
	case strings.EqualFold(s, string(BookingCancelled)), strings.EqualFold(s, "Canceled"):
		return BookingCancelled, true
	default:
		return "", false
	}
}

type Booking struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Date      string        `json:"date"`
	Office    string        `json:"office"`
	Direction Direction     `json:"direction"`
	Time      string        `json:"time"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Active reports whether the booking holds a seat.
func (b Booking) Active() bool { return b.Status != BookingCancelled }

func (b Booking) Fingerprint() Fingerprint {
	return Fingerprint{Date: b.Date, Office: b.Office, Direction: b.Direction, Time: b.Time}
}

type BookingReq struct {
	Date   string `json:"date" validate:"required"`
	Office string `json:"office" validate:"required"`
	Label  string `json:"label" validate:"required"`
}
