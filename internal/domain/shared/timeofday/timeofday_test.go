package timeofday

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		value    string
		expected Time
		wantErr  bool
	}{
		{value: "00:00", expected: 0},
		{value: "00:15", expected: 15},
		{value: "09:05", expected: 545},
		{value: "14:35", expected: 875},
		{value: "17:00", expected: 1020},
		{value: "24:00", expected: 1440},
		{value: "24:01", wantErr: true},
		{value: "12:60", wantErr: true},
		{value: "25:00", wantErr: true},
		{value: "garbage", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := Parse(c.value)
		if c.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q): expected error, got %v", c.value, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", c.value, err)
		}
		if got != c.expected {
			t.Fatalf("Parse(%q) = %d, expected %d", c.value, got, c.expected)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		value    Time
		expected string
	}{
		{value: 0, expected: "00:00"},
		{value: 545, expected: "09:05"},
		{value: 1020, expected: "17:00"},
		{value: 1440, expected: "24:00"},
	}
	for _, c := range cases {
		if got := c.value.String(); got != c.expected {
			t.Fatalf("Time(%d).String() = %q, expected %q", c.value, got, c.expected)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 Time
		expected       bool
	}{
		{name: "disjoint", s1: 540, e1: 600, s2: 600, e2: 660, expected: false},
		{name: "touching edges do not overlap", s1: 600, e1: 660, s2: 540, e2: 600, expected: false},
		{name: "contained", s1: 540, e1: 1020, s2: 600, e2: 720, expected: true},
		{name: "partial", s1: 540, e1: 630, s2: 600, e2: 720, expected: true},
		{name: "identical", s1: 540, e1: 600, s2: 540, e2: 600, expected: true},
	}
	for _, c := range cases {
		if got := Overlaps(c.s1, c.e1, c.s2, c.e2); got != c.expected {
			t.Fatalf("%s: Overlaps = %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestOn(t *testing.T) {
	date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	at := MustParse("10:30").On(date)
	expected := time.Date(2026, time.September, 7, 10, 30, 0, 0, time.UTC)
	if !at.Equal(expected) {
		t.Fatalf("On() = %v, expected %v", at, expected)
	}
}

func TestSub(t *testing.T) {
	start := MustParse("09:00")
	end := MustParse("12:30")
	if d := end.Sub(start); d != 3*time.Hour+30*time.Minute {
		t.Fatalf("Sub = %v", d)
	}
}
