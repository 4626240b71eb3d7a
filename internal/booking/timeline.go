package booking

import (
	"sort"
	"time"
	"unicode/utf16"

	"github.com/nekogravitycat/smartroom-backend/internal/room"
)

const hoursPerDay = 24

// DayKey returns the YYYY-MM-DD calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// HourOccupied reports whether b occupies the hourly bucket starting at hour (0-23) of
// its own day. An end with non-zero minutes extends into the hour containing it.
func HourOccupied(b *Booking, hour int, loc *time.Location) bool {
	start := b.StartTime.In(loc)
	end := b.EndTime.In(loc)
	return hour >= start.Hour() && (hour < end.Hour() || (hour == end.Hour() && end.Minute() > 0))
}

// Occupant is a booking shown in an hourly slot. IsStart marks the booking's first slot.
type Occupant struct {
	Booking *Booking
	IsStart bool
}

type Slot struct {
	Hour      int
	Occupants []Occupant
}

// Timeline is the hourly view of one room for one day.
type Timeline struct {
	RoomID   string
	Date     string
	Slots    []Slot
	Bookings []*Booking // occupying bookings starting that day, by start time
}

// DayBookings returns the occupying bookings of roomID whose start falls on date, sorted by start.
func DayBookings(bookings []*Booking, roomID, date string, loc *time.Location) []*Booking {
	var out []*Booking
	for _, b := range bookings {
		if b.RoomID != roomID || !b.Status.Occupying() {
			continue
		}
		if DayKey(b.StartTime, loc) != date {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// RoomTimeline builds 24 hourly slots for roomID on date. PENDING and APPROVED bookings both
// occupy; callers tell them apart by status.
func RoomTimeline(bookings []*Booking, roomID, date string, loc *time.Location) Timeline {
	day := DayBookings(bookings, roomID, date, loc)

	slots := make([]Slot, hoursPerDay)
	for h := range slots {
		slots[h].Hour = h
		for _, b := range day {
			if HourOccupied(b, h, loc) {
				slots[h].Occupants = append(slots[h].Occupants, Occupant{
					Booking: b,
					IsStart: b.StartTime.In(loc).Hour() == h,
				})
			}
		}
	}

	return Timeline{
		RoomID:   roomID,
		Date:     date,
		Slots:    slots,
		Bookings: day,
	}
}

// RoomDay is one room's row of the daily schedule.
type RoomDay struct {
	Room *room.Room
	// Current is the APPROVED booking in progress at the time the schedule was built.
	Current *Booking
	// Reserved is the first APPROVED booking starting on the day.
	Reserved *Booking
	Timeline Timeline
}

// DailySchedule builds a timeline for every room on date.
func DailySchedule(rooms []*room.Room, bookings []*Booking, date string, now time.Time, loc *time.Location) []RoomDay {
	out := make([]RoomDay, 0, len(rooms))
	for _, rm := range rooms {
		tl := RoomTimeline(bookings, rm.ID, date, loc)
		var reserved *Booking
		for _, b := range tl.Bookings {
			if b.Status == StatusApproved {
				reserved = b
				break
			}
		}
		out = append(out, RoomDay{
			Room:     rm,
			Current:  CurrentBooking(bookings, rm.ID, now),
			Reserved: reserved,
			Timeline: tl,
		})
	}
	return out
}

// AvailableRoomCount counts rooms marked available that have no APPROVED booking starting on date.
// PENDING bookings do not reduce the count.
func AvailableRoomCount(rooms []*room.Room, bookings []*Booking, date string, loc *time.Location) int {
	booked := make(map[string]struct{})
	for _, b := range bookings {
		if b.Status == StatusApproved && DayKey(b.StartTime, loc) == date {
			booked[b.RoomID] = struct{}{}
		}
	}

	count := 0
	for _, rm := range rooms {
		if !rm.IsAvailable {
			continue
		}
		if _, ok := booked[rm.ID]; !ok {
			count++
		}
	}
	return count
}

type DayAvailability struct {
	Date      string
	Available int
	Total     int
}

// MonthAvailability returns the available room count for every day of the month.
func MonthAvailability(rooms []*room.Room, bookings []*Booking, year int, month time.Month, loc *time.Location) []DayAvailability {
	total := 0
	for _, rm := range rooms {
		if rm.IsAvailable {
			total++
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()

	out := make([]DayAvailability, 0, days)
	for d := 0; d < days; d++ {
		key := first.AddDate(0, 0, d).Format(dateLayout)
		out = append(out, DayAvailability{
			Date:      key,
			Available: AvailableRoomCount(rooms, bookings, key, loc),
			Total:     total,
		})
	}
	return out
}

// CurrentBooking returns the APPROVED booking on roomID with start <= now < end, or nil.
func CurrentBooking(bookings []*Booking, roomID string, now time.Time) *Booking {
	for _, b := range bookings {
		if b.RoomID != roomID || b.Status != StatusApproved {
			continue
		}
		if !b.StartTime.After(now) && b.EndTime.After(now) {
			return b
		}
	}
	return nil
}

// ColorIndex maps an id to one of buckets stable color slots.
// The hash is h = h*31 + c over UTF-16 code units with 32-bit wraparound.
func ColorIndex(id string, buckets int) int {
	if buckets <= 0 {
		return 0
	}
	var h int32
	for _, c := range utf16.Encode([]rune(id)) {
		h = h*31 + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % int64(buckets))
}

// ScheduleAvailability is AvailableRoomCount for an already built daily schedule.
func ScheduleAvailability(days []RoomDay) int {
	count := 0
	for _, d := range days {
		if d.Room.IsAvailable && d.Reserved == nil {
			count++
		}
	}
	return count
}
