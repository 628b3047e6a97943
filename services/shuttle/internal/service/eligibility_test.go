package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
}

func TestEvaluateCutoff_Grid(t *testing.T) {
	e := NewEngine(DefaultCutoffHour, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		date string
		want bool
	}{
		{"tomorrow before cutoff", at(9, 13, 59), "2024-06-10", true},
		{"tomorrow at cutoff", at(9, 14, 0), "2024-06-10", false},
		{"tomorrow after cutoff", at(9, 23, 30), "2024-06-10", false},
		{"today after cutoff", at(10, 15, 0), "2024-06-10", true},
		{"day after tomorrow after cutoff", at(9, 20, 0), "2024-06-11", true},
		{"yesterday", at(11, 8, 0), "2024-06-10", false},
		{"garbage date", at(9, 8, 0), "June 10", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.EvaluateCutoff(tt.now, tt.date))
		})
	}
}

func TestEvaluateCutoff_UsesConfiguredZone(t *testing.T) {
	tz := time.FixedZone("UTC+7", 7*3600)
	e := NewEngine(14, tz)

	// 08:00 UTC is 15:00 in UTC+7, past the cutoff there.
	assert.False(t, e.EvaluateCutoff(at(9, 8, 0), "2024-06-10"))
	assert.True(t, NewEngine(14, time.UTC).EvaluateCutoff(at(9, 8, 0), "2024-06-10"))
}

func TestCheckBookable_Reasons(t *testing.T) {
	e := NewEngine(14, time.UTC)

	assert.ErrorIs(t, e.checkBookable(at(11, 8, 0), "2024-06-10"), domain.ErrDateInPast)
	assert.ErrorIs(t, e.checkBookable(at(9, 14, 0), "2024-06-10"), domain.ErrCutoffPassed)
	assert.ErrorIs(t, e.checkBookable(at(9, 8, 0), "10/06/2024"), domain.ErrInvalidInput)
	assert.NoError(t, e.checkBookable(at(9, 8, 0), "2024-06-10"))
}

var schedule = []domain.ScheduleSlot{
	{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Capacity: 1},
	{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToSite, Time: "17:00", Capacity: 10},
	{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "07:30", Capacity: 10},
	{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Capacity: 2},
	{Date: "2024-06-10", Office: "VNL", Direction: domain.DirectionToOffice, Time: "08:00", Capacity: 5},
	{Date: "2024-06-11", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Capacity: 5},
}

func labels(a domain.Availability) []string {
	out := make([]string, 0, len(a.Offers))
	for _, o := range a.Offers {
		out = append(out, o.Label())
	}
	return out
}

func TestComputeAvailableSlots_FiltersAndKeepsStoreOrder(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC"}

	got := e.ComputeAvailableSlots(at(8, 9, 0), q, nil, schedule)

	assert.Equal(t, []string{"toOffice 08:00", "toSite 17:00", "toOffice 07:30"}, labels(got))
	assert.Empty(t, got.Notes)
	assert.True(t, got.BookingOpen)
}

func TestComputeAvailableSlots_DirectionFilter(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToSite}

	got := e.ComputeAvailableSlots(at(8, 9, 0), q, nil, schedule)
	assert.Equal(t, []string{"toSite 17:00"}, labels(got))
}

func TestComputeAvailableSlots_ExcludesBookedDirection(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC"}
	mine := []domain.Booking{{
		Username: "alice", Date: "2024-06-10", Office: "VNL",
		Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingConfirmed,
	}}

	got := e.ComputeAvailableSlots(at(8, 9, 0), q, mine, schedule)

	assert.Equal(t, []string{"toSite 17:00"}, labels(got))
	assert.Equal(t, []string{"already booked toOffice"}, got.Notes)
}

func TestComputeAvailableSlots_FullyBooked(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC"}
	mine := []domain.Booking{
		{Username: "alice", Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingConfirmed},
		{Username: "alice", Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToSite, Time: "17:00", Status: domain.BookingConfirmed},
	}

	got := e.ComputeAvailableSlots(at(8, 9, 0), q, mine, schedule)

	assert.Empty(t, got.Offers)
	assert.Equal(t, []string{"fully booked for date"}, got.Notes)
}

func TestComputeAvailableSlots_IgnoresCancelledAndOtherDates(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice}
	mine := []domain.Booking{
		{Username: "alice", Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingCancelled},
		{Username: "alice", Date: "2024-06-11", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingConfirmed},
	}

	got := e.ComputeAvailableSlots(at(8, 9, 0), q, mine, schedule)

	assert.Equal(t, []string{"toOffice 08:00", "toOffice 07:30"}, labels(got))
	assert.Empty(t, got.Notes)
}

func TestComputeAvailableSlots_ReportsClosedBooking(t *testing.T) {
	e := NewEngine(14, time.UTC)
	q := domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC"}

	got := e.ComputeAvailableSlots(at(9, 15, 0), q, nil, schedule)
	assert.False(t, got.BookingOpen)
	assert.NotEmpty(t, got.Offers)
}

func TestComputeAvailableSlots_OffersRoundTripThroughLabel(t *testing.T) {
	e := NewEngine(14, time.UTC)
	got := e.ComputeAvailableSlots(at(8, 9, 0), domain.AvailabilityQuery{Date: "2024-06-10", Office: "MMC"}, nil, schedule)

	for _, o := range got.Offers {
		parsed, err := domain.ParseSlotLabel(o.Label())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
}

func TestSeatsLeft_SumsDuplicateSlots(t *testing.T) {
	fp := domain.Fingerprint{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00"}
	bookings := []domain.Booking{
		{Username: "a", Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingConfirmed},
		{Username: "b", Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToOffice, Time: "08:00", Status: domain.BookingCancelled},
	}

	left, found := seatsLeft(fp, schedule, bookings)
	assert.True(t, found)
	assert.Equal(t, 2, left)

	_, found = seatsLeft(domain.Fingerprint{Date: "2024-06-10", Office: "MMC", Direction: domain.DirectionToSite, Time: "09:00"}, schedule, nil)
	assert.False(t, found)
}
