package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Direction string

const (
	DirectionToOffice Direction = "toOffice"
	DirectionToSite   Direction = "toSite"
)

// Directions lists both classes in display order.
var Directions = []Direction{DirectionToOffice, DirectionToSite}

func ParseDirection(s string) (Direction, bool) {
	for _, d := range Directions {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// CanonicalOffice returns the allow-list spelling of office, matched
// without regard to case. An empty allow-list accepts any non-empty office.
func CanonicalOffice(office string, allowed []string) (string, bool) {
	office = strings.TrimSpace(office)
	if office == "" {
		return "", false
	}
	if len(allowed) == 0 {
		return office, true
	}
	for _, o := range allowed {
		if strings.EqualFold(o, office) {
			return o, true
		}
	}
	return "", false
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time part as
// written by spreadsheet tooling, and returns the canonical form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == ' ' || s[len(DateLayout)] == 'T') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}

// ParseClock accepts HH:MM or HH:MM:SS and returns HH:MM.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05", "3:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("time %q: want HH:MM", s)
}

// ScheduleSlot is a bookable departure. Several slots may share a
// fingerprint; their capacities add up.
type ScheduleSlot struct {
	Date      string    `json:"date"`
	Office    string    `json:"office"`
	Direction Direction `json:"direction"`
	Time      string    `json:"time"`
	Capacity  int       `json:"capacity"`
}

func (s ScheduleSlot) Fingerprint() Fingerprint {
	return Fingerprint{Date: s.Date, Office: s.Office, Direction: s.Direction, Time: s.Time}
}

// Fingerprint identifies a departure independent of who booked it.
type Fingerprint struct {
	Date      string
	Office    string
	Direction Direction
	Time      string
}

func (f Fingerprint) String() string {
	return f.Date + "|" + f.Office + "|" + string(f.Direction) + "|" + f.Time
}

type AddSlotReq struct {
	Date      string `json:"date" validate:"required"`
	Office    string `json:"office" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=toOffice toSite"`
	Time      string `json:"time" validate:"required"`
	Capacity  *int   `json:"capacity,omitempty" validate:"omitempty,min=0"`
}
