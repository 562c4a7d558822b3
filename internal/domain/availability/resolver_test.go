package availability

import (
	"testing"
	"time"

	"meytle/internal/domain/shared/timeofday"
)

func TestDayOf(t *testing.T) {
	cases := []struct {
		date     time.Time
		expected Day
	}{
		{date: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC), expected: Monday},
		{date: time.Date(2026, time.September, 8, 0, 0, 0, 0, time.UTC), expected: Tuesday},
		{date: time.Date(2026, time.September, 12, 0, 0, 0, 0, time.UTC), expected: Saturday},
		{date: time.Date(2026, time.September, 13, 0, 0, 0, 0, time.UTC), expected: Sunday},
	}
	for _, c := range cases {
		if got := DayOf(c.date); got != c.expected {
			t.Fatalf("DayOf(%v) = %s, expected %s", c.date, got, c.expected)
		}
	}
}

func TestParseDay(t *testing.T) {
	if day, ok := ParseDay(" Friday "); !ok || day != Friday {
		t.Fatalf("ParseDay(Friday) = %q, %v", day, ok)
	}
	if _, ok := ParseDay("someday"); ok {
		t.Fatal("ParseDay accepted an unknown weekday")
	}
}

func TestSummarize(t *testing.T) {
	monday := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	slots := []WeeklySlot{
		slot(Monday, "09:00", "12:00"),
		slot(Monday, "13:00", "17:00"),
		slot(Tuesday, "09:00", "12:00"),
	}
	booked := []BookedInterval{
		{Start: timeofday.MustParse("13:30"), End: timeofday.MustParse("14:30")},
	}

	summary := Summarize(monday, slots, booked)
	if summary.Day != Monday {
		t.Fatalf("day = %s", summary.Day)
	}
	if summary.TotalSlots != 2 {
		t.Fatalf("total = %d, expected 2", summary.TotalSlots)
	}
	if summary.AvailableSlots != 1 || summary.BookedSlots != 1 {
		t.Fatalf("available/booked = %d/%d, expected 1/1", summary.AvailableSlots, summary.BookedSlots)
	}
	if !summary.IsAvailable {
		t.Fatal("expected day to be available")
	}
	if len(summary.Open) != 1 || summary.Open[0].Start != timeofday.MustParse("09:00") {
		t.Fatalf("open = %v", summary.Open)
	}
}

func TestSummarizeFullyBooked(t *testing.T) {
	monday := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	slots := []WeeklySlot{slot(Monday, "09:00", "17:00")}
	booked := []BookedInterval{
		{Start: timeofday.MustParse("10:00"), End: timeofday.MustParse("12:00")},
	}
	summary := Summarize(monday, slots, booked)
	if summary.IsAvailable || summary.AvailableSlots != 0 || summary.BookedSlots != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}
