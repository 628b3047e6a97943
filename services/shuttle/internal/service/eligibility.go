package service

import (
	"time"

	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

const DefaultCutoffHour = 14

// Engine holds the pure booking rules. It never touches the store.
type Engine struct {
	cutoffHour int
	loc        *time.Location
}

func NewEngine(cutoffHour int, loc *time.Location) Engine {
	if loc == nil {
		loc = time.Local
	}
	return Engine{cutoffHour: cutoffHour, loc: loc}
}

// EvaluateCutoff reports whether date can still be booked at now.
// Tomorrow closes at the cutoff hour; past dates are always closed.
func (e Engine) EvaluateCutoff(now time.Time, date string) bool {
	return e.checkBookable(now, date) == nil
}

func (e Engine) checkBookable(now time.Time, date string) error {
	date, err := domain.ParseDate(date)
	if err != nil {
		return domain.Reject(domain.ErrInvalidInput, "%v", err)
	}

	local := now.In(e.loc)
	today := local.Format(domain.DateLayout)
	tomorrow := local.AddDate(0, 0, 1).Format(domain.DateLayout)

	switch {
	case date < today:
		return domain.Reject(domain.ErrDateInPast, "%s is in the past", date)
	case date == tomorrow && local.Hour() >= e.cutoffHour:
		return domain.Reject(domain.ErrCutoffPassed,
			"booking for %s closed at %02d:00", date, e.cutoffHour)
	}
	return nil
}

// ComputeAvailableSlots lists what the user may still pick for q.
// userBookings are the caller's bookings; inactive ones and other dates
// are ignored. The per-direction cap does not depend on office.
func (e Engine) ComputeAvailableSlots(now time.Time, q domain.AvailabilityQuery, userBookings []domain.Booking, slots []domain.ScheduleSlot) domain.Availability {
	out := domain.Availability{
		Date:        q.Date,
		Office:      q.Office,
		Offers:      []domain.SlotOffer{},
		BookingOpen: e.EvaluateCutoff(now, q.Date),
	}

	booked := make(map[domain.Direction]bool, len(domain.Directions))
	for _, b := range userBookings {
		if b.Active() && b.Date == q.Date {
			booked[b.Direction] = true
		}
	}

	if len(booked) == len(domain.Directions) {
		out.Notes = []string{domain.NoteFullyBooked}
		return out
	}
	for _, d := range domain.Directions {
		if booked[d] {
			out.Notes = append(out.Notes, domain.NoteAlreadyBooked(d))
		}
	}

	seen := make(map[string]bool)
	for _, s := range slots {
		if s.Date != q.Date || s.Office != q.Office {
			continue
		}
		if q.Direction != "" && s.Direction != q.Direction {
			continue
		}
		if booked[s.Direction] {
			continue
		}
		offer := domain.SlotOffer{Direction: s.Direction, Time: s.Time}
		if seen[offer.Label()] {
			continue
		}
		seen[offer.Label()] = true
		out.Offers = append(out.Offers, offer)
	}
	return out
}

// seatsLeft is the summed capacity of every slot carrying fp minus the
// active bookings on fp. found is false when no slot carries fp.
func seatsLeft(fp domain.Fingerprint, slots []domain.ScheduleSlot, bookings []domain.Booking) (left int, found bool) {
	for _, s := range slots {
		if s.Fingerprint() == fp {
			left += s.Capacity
			found = true
		}
	}
	for _, b := range bookings {
		if b.Active() && b.Fingerprint() == fp {
			left--
		}
	}
	return left, found
}

func holdsDirection(username, date string, dir domain.Direction, bookings []domain.Booking) bool {
	for _, b := range bookings {
		if b.Active() && b.Username == username && b.Date == date && b.Direction == dir {
			return true
		}
	}
	return false
}
