package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

const (
	TableUsers    = "Users"
	TableSchedule = "Schedule"
	TableBookings = "Bookings"
)

const (
	colUsername  = "Username"
	colPassword  = "Password"
	colRole      = "Role"
	colDate      = "Date"
	colOffice    = "Office"
	colDirection = "Direction"
	colTime      = "Time"
	colCapacity  = "Capacity"
	colID        = "ID"
	colStatus    = "Status"
	colTimestamp = "Timestamp"
)

// Rows written by hand in the sheet carry the Python str(datetime) form.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func userFromRow(r tabular.Row) (domain.User, bool) {
	username := r[colUsername]
	if username == "" {
		return domain.User{}, false
	}
	role, ok := domain.ParseRole(strings.TrimSpace(r[colRole]))
	if !ok {
		// Unknown roles get the least privilege.
		role = domain.RoleUser
	}
	return domain.User{Username: username, Password: r[colPassword], Role: role}, true
}

func userToRow(u domain.User) tabular.Row {
	return tabular.Row{
		colUsername: u.Username,
		colPassword: u.Password,
		colRole:     string(u.Role),
	}
}

func slotFromRow(r tabular.Row, offices []string) (domain.ScheduleSlot, bool) {
	date, err := domain.ParseDate(r[colDate])
	if err != nil {
		return domain.ScheduleSlot{}, false
	}
	dir, ok := domain.ParseDirection(strings.TrimSpace(r[colDirection]))
	if !ok {
		return domain.ScheduleSlot{}, false
	}
	clock, err := domain.ParseClock(r[colTime])
	if err != nil {
		return domain.ScheduleSlot{}, false
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(r[colCapacity]))
	if err != nil || capacity < 0 {
		return domain.ScheduleSlot{}, false
	}
	return domain.ScheduleSlot{
		Date:      date,
		Office:    officeFromRow(r[colOffice], offices),
		Direction: dir,
		Time:      clock,
		Capacity:  capacity,
	}, true
}

// officeFromRow maps a hand-typed office onto its configured spelling so
// rows compare equal to validated requests. Unlisted offices are kept as
// written.
func officeFromRow(raw string, offices []string) string {
	if canonical, ok := domain.CanonicalOffice(raw, offices); ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

func slotToRow(s domain.ScheduleSlot) tabular.Row {
	return tabular.Row{
		colDate:      s.Date,
		colOffice:    s.Office,
		colDirection: string(s.Direction),
		colTime:      s.Time,
		colCapacity:  strconv.Itoa(s.Capacity),
	}
}

func bookingFromRow(r tabular.Row, offices []string) (domain.Booking, bool) {
	slot, ok := slotFromRow(tabular.Row{
		colDate:      r[colDate],
		colOffice:    r[colOffice],
		colDirection: r[colDirection],
		colTime:      r[colTime],
		colCapacity:  "0",
	}, offices)
	if !ok || r[colUsername] == "" {
		return domain.Booking{}, false
	}
	status, ok := domain.ParseBookingStatus(strings.TrimSpace(r[colStatus]))
	if !ok {
		// A seat is held unless the row says otherwise.
		status = domain.BookingConfirmed
	}
	b := domain.Booking{
		ID:        r[colID],
		Username:  r[colUsername],
		Date:      slot.Date,
		Office:    slot.Office,
		Direction: slot.Direction,
		Time:      slot.Time,
		Status:    status,
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, strings.TrimSpace(r[colTimestamp])); err == nil {
			b.CreatedAt = ts
			break
		}
	}
	return b, true
}

func bookingToRow(b domain.Booking) tabular.Row {
	return tabular.Row{
		colID:        b.ID,
		colUsername:  b.Username,
		colDate:      b.Date,
		colOffice:    b.Office,
		colDirection: string(b.Direction),
		colTime:      b.Time,
		colStatus:    string(b.Status),
		colTimestamp: b.CreatedAt.Format(time.RFC3339Nano),
	}
}
