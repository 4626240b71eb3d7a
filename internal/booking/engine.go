package booking

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// Wall-clock bounds used when a request leaves start or end blank.
	defaultStartClock = "00:00"
	defaultEndClock   = "23:59"

	// Local hour from which non-admins may also book the following day.
	horizonOpensHour = 8
)

// Window is a half-open [Start, End) interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two windows share any instant. Touching endpoints do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// FindConflict returns the first occupying booking on roomID that overlaps req, or nil.
func FindConflict(roomID string, req Window, existing []*Booking) *Booking {
	for _, b := range existing {
		if b.RoomID != roomID || !b.Status.Occupying() {
			continue
		}
		if req.Overlaps(b.Window()) {
			return b
		}
	}
	return nil
}

// ValidateWindow decides whether a new request for roomID may be submitted.
// Checks run in order: empty window, start older than now minus grace, overlap with
// a PENDING or APPROVED booking on the same room. existing may span several rooms.
func ValidateWindow(roomID string, req Window, now time.Time, grace time.Duration, existing []*Booking) error {
	if !req.Valid() {
		return ErrInvalidTimeRange
	}
	if req.Start.Before(now.Add(-grace)) {
		return ErrStartTimePast
	}
	if FindConflict(roomID, req, existing) != nil {
		return ErrTimeConflict
	}
	return nil
}

// LastBookableDay is the last local date, as midnight in loc, a non-admin may book at now:
// today, or tomorrow once the local clock reads 08:00.
func LastBookableDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Hour() >= horizonOpensHour {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// CheckHorizon rejects a window starting after the last bookable day. Admins may book any date.
func CheckHorizon(req Window, now time.Time, loc *time.Location, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	if !req.Start.Before(LastBookableDay(now, loc).AddDate(0, 0, 1)) {
		return ErrBeyondHorizon
	}
	return nil
}

// WindowOnDate builds a same-day window from a YYYY-MM-DD date and HH:MM wall-clock
// times interpreted in loc. Blank start means 00:00, blank end means 23:59.
func WindowOnDate(date, start, end string, loc *time.Location) (Window, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return Window{}, err
	}

	if strings.TrimSpace(start) == "" {
		start = defaultStartClock
	}
	if strings.TrimSpace(end) == "" {
		end = defaultEndClock
	}

	s, err := atClock(day, start)
	if err != nil {
		return Window{}, err
	}
	e, err := atClock(day, end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// ParseDate parses a YYYY-MM-DD key as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return day, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
