package timeofday

import (
	"errors"
	"fmt"
	"time"
)

// Time is a local time of day stored as minutes from midnight. Keeping the
// value as plain minutes makes interval math trivial and avoids dragging
// time.Time zone handling into slot comparisons.
type Time int

const (
	// Midnight is the start of a day.
	Midnight Time = 0
	// EndOfDay is the exclusive upper bound for slot end times.
	EndOfDay Time = 24 * 60
)

var ErrInvalidTime = errors.New("timeofday: value must be within 00:00..24:00")

// Parse reads an "HH:MM" 24-hour value. "24:00" is accepted as an exclusive
// interval end.
func Parse(value string) (Time, error) {
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("timeofday: malformed value %q: %w", value, err)
	}
	if minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timeofday: malformed value %q: %w", value, ErrInvalidTime)
	}
	t := Time(hours*60 + minutes)
	if t < Midnight || t > EndOfDay {
		return 0, fmt.Errorf("timeofday: malformed value %q: %w", value, ErrInvalidTime)
	}
	return t, nil
}

// MustParse is a fixture/test helper that panics on malformed input.
func MustParse(value string) Time {
	t, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return t
}

// FromClock builds a Time from hour and minute components.
func FromClock(hour, minute int) Time {
	return Time(hour*60 + minute)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t Time) Valid() bool {
	return t >= Midnight && t <= EndOfDay
}

// Before reports whether t is strictly earlier than other.
func (t Time) Before(other Time) bool { return t < other }

// After reports whether t is strictly later than other.
func (t Time) After(other Time) bool { return t > other }

// Sub returns the duration between two times of day.
func (t Time) Sub(earlier Time) time.Duration {
	return time.Duration(int(t)-int(earlier)) * time.Minute
}

// On anchors the time of day onto a calendar date in the date's location.
func (t Time) On(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(time.Duration(t) * time.Minute)
}

// Overlaps applies the half-open interval test: [s1,e1) intersects [s2,e2).
func Overlaps(s1, e1, s2, e2 Time) bool {
	return s1 < e2 && e1 > s2
}
