package availability

import (
	"time"

	"meytle/internal/domain/shared/timeofday"
)

// BookedInterval is the slice of an active booking the resolver cares about.
type BookedInterval struct {
	Start timeofday.Time
	End   timeofday.Time
}

// OpenSlot is an availability window with no conflicting booking on the
// resolved date.
type OpenSlot struct {
	Start    timeofday.Time
	End      timeofday.Time
	Services []string
}

// OpenSlots projects the weekly pattern onto one weekday and removes windows
// consumed by bookings. A slot touched by any booking is blocked whole; the
// remainder of a partially booked window is not offered. Results follow the
// slots' natural Monday-first, start-ascending order.
func OpenSlots(slots []WeeklySlot, day Day, booked []BookedInterval) []OpenSlot {
	daySlots := make([]WeeklySlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Active && slot.Day == day {
			daySlots = append(daySlots, slot)
		}
	}
	SortWeek(daySlots)

	open := make([]OpenSlot, 0, len(daySlots))
	for _, slot := range daySlots {
		if blocked(slot, booked) {
			continue
		}
		open = append(open, OpenSlot{Start: slot.Start, End: slot.End, Services: slot.Services})
	}
	return open
}

func blocked(slot WeeklySlot, booked []BookedInterval) bool {
	for _, interval := range booked {
		if timeofday.Overlaps(slot.Start, slot.End, interval.Start, interval.End) {
			return true
		}
	}
	return false
}

// DaySummary is one calendar day of a companion's availability calendar.
type DaySummary struct {
	Date           time.Time
	Day            Day
	Open           []OpenSlot
	TotalSlots     int
	AvailableSlots int
	BookedSlots    int
	IsAvailable    bool
}

// Summarize resolves a single date. The weekday is derived from the date on
// every call; nothing is cached across days.
func Summarize(date time.Time, slots []WeeklySlot, booked []BookedInterval) DaySummary {
	day := DayOf(date)
	total := 0
	for _, slot := range slots {
		if slot.Active && slot.Day == day {
			total++
		}
	}
	open := OpenSlots(slots, day, booked)
	return DaySummary{
		Date:           date,
		Day:            day,
		Open:           open,
		TotalSlots:     total,
		AvailableSlots: len(open),
		BookedSlots:    total - len(open),
		IsAvailable:    len(open) > 0,
	}
}
