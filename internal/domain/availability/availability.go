package availability

import (
	"context"
	"sort"
	"strings"
	"time"

	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/timeofday"
	"meytle/internal/domain/user"
)

// Day is a lowercase weekday name. Ordering is Monday-first.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Week lists the days Monday-first.
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayIndex = map[Day]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6,
}

// ParseDay recognises a weekday name, case-insensitively.
func ParseDay(value string) (Day, bool) {
	day := Day(strings.ToLower(strings.TrimSpace(value)))
	_, ok := dayIndex[day]
	return day, ok
}

// DayOf maps a calendar date to its weekday name.
func DayOf(date time.Time) Day {
	switch date.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Index returns the Monday-first position of the day, or -1 for unknown names.
func (d Day) Index() int {
	idx, ok := dayIndex[d]
	if !ok {
		return -1
	}
	return idx
}

// WeeklySlot is one recurring time window a companion offers. Slots have no
// identity of their own; each replacement call supplies the full week.
type WeeklySlot struct {
	CompanionID user.ID
	Day         Day
	Start       timeofday.Time
	End         timeofday.Time
	Active      bool
	Services    []string
}

// Validate checks a single slot in isolation.
func (s WeeklySlot) Validate() error {
	if s.Day.Index() < 0 {
		return fault.Validationf("day_of_week", "unknown weekday %q", string(s.Day))
	}
	if !s.Start.Valid() || !s.End.Valid() {
		return fault.Validationf("time", "%s: times must fall within the day", s.Day)
	}
	if !s.Start.Before(s.End) {
		return fault.Validationf("time", "%s: start %s must be before end %s", s.Day, s.Start, s.End)
	}
	return nil
}

// ValidateWeek checks a full replacement set: every slot must be valid and
// active slots on the same day must not overlap. The whole set is accepted or
// rejected as one unit.
func ValidateWeek(slots []WeeklySlot) error {
	perDay := make(map[Day][]WeeklySlot, len(Week))
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return err
		}
		if !slot.Active {
			continue
		}
		perDay[slot.Day] = append(perDay[slot.Day], slot)
	}
	for _, day := range Week {
		daySlots := perDay[day]
		if len(daySlots) < 2 {
			continue
		}
		sort.Slice(daySlots, func(i, j int) bool { return daySlots[i].Start < daySlots[j].Start })
		for i := 1; i < len(daySlots); i++ {
			prev, next := daySlots[i-1], daySlots[i]
			if prev.End.After(next.Start) {
				return fault.Conflictf("%s: slots %s-%s and %s-%s overlap",
					day, prev.Start, prev.End, next.Start, next.End)
			}
		}
	}
	return nil
}

// SortWeek orders slots Monday-first, then by start time.
func SortWeek(slots []WeeklySlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day.Index() < slots[j].Day.Index()
		}
		return slots[i].Start < slots[j].Start
	})
}

type Repository interface {
	// WeeklyByCompanion returns every stored slot for the companion,
	// active or not, in no particular order.
	WeeklyByCompanion(ctx context.Context, companionID user.ID) ([]WeeklySlot, error)
	// ReplaceWeekly deletes all prior slots for the companion and inserts
	// the given set as a single atomic unit.
	ReplaceWeekly(ctx context.Context, companionID user.ID, slots []WeeklySlot) error
}
