package domain

import (
	"fmt"
	"strings"
)

const (
	NoteFullyBooked         = "fully booked for date"
	noteAlreadyBookedPrefix = "already booked "
)

// NoteAlreadyBooked is the note shown when the user already holds a
// booking in direction d on the requested date.
func NoteAlreadyBooked(d Direction) string {
	return noteAlreadyBookedPrefix + string(d)
}

type SlotOffer struct {
	Direction Direction `json:"direction"`
	Time      string    `json:"time"`
}

// Label is the user-facing identifier, "<direction> <time>".
func (o SlotOffer) Label() string {
	return string(o.Direction) + " " + o.Time
}

// ParseSlotLabel recovers the direction and time from a Label.
func ParseSlotLabel(label string) (SlotOffer, error) {
	dir, clock, ok := strings.Cut(strings.TrimSpace(label), " ")
	if !ok {
		return SlotOffer{}, fmt.Errorf("label %q: want \"<direction> <time>\"", label)
	}
	d, ok := ParseDirection(dir)
	if !ok {
		return SlotOffer{}, fmt.Errorf("label %q: unknown direction %q", label, dir)
	}
	t, err := ParseClock(clock)
	if err != nil {
		return SlotOffer{}, fmt.Errorf("label %q: %w", label, err)
	}
	return SlotOffer{Direction: d, Time: t}, nil
}

type Availability struct {
	Date        string
	Office      string
	Offers      []SlotOffer
	Notes       []string
	BookingOpen bool
}

type AvailabilityQuery struct {
	Date      string
	Office    string
	Direction Direction // empty means both
}

// OfferDTO is how an offer appears on the wire.
type OfferDTO struct {
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
	Time      string    `json:"time"`
}

type AvailabilityRes struct {
	Date        string     `json:"date"`
	Office      string     `json:"office"`
	Offers      []OfferDTO `json:"offers"`
	Notes       []string   `json:"notes"`
	BookingOpen bool       `json:"booking_open"`
}

func (a Availability) DTO() AvailabilityRes {
	res := AvailabilityRes{
		Date:        a.Date,
		Office:      a.Office,
		Offers:      make([]OfferDTO, 0, len(a.Offers)),
		Notes:       a.Notes,
		BookingOpen: a.BookingOpen,
	}
	if res.Notes == nil {
		res.Notes = []string{}
	}
	for _, o := range a.Offers {
		res.Offers = append(res.Offers, OfferDTO{Label: o.Label(), Direction: o.Direction, Time: o.Time})
	}
	return res
}
