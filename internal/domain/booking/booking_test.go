package booking

import (
	"strings"
	"testing"
	"time"

	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func validParams() CreateParams {
	return CreateParams{
		ID:          "bk-1",
		ClientID:    "client-1",
		CompanionID: "comp-1",
		Date:        time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC),
		Start:       timeofday.MustParse("10:00"),
		End:         timeofday.MustParse("12:00"),
		Total:       money.Must(7000, "USD"),
		MeetingType: MeetingInPerson,
		Now:         testNow,
	}
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %s, expected pending", b.Status)
	}
	if b.DurationMinutes() != 120 {
		t.Fatalf("duration = %d minutes", b.DurationMinutes())
	}
	if len(b.Events()) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(b.Events()))
	}
	if b.Events()[0].EventName() != "booking.requested" {
		t.Fatalf("event = %s", b.Events()[0].EventName())
	}
}

func TestNewBookingValidation(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*CreateParams)
		fragment string
	}{
		{
			name:     "self booking",
			mutate:   func(p *CreateParams) { p.CompanionID = p.ClientID },
			fragment: "cannot book themselves",
		},
		{
			name: "past date",
			mutate: func(p *CreateParams) {
				p.Date = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
			},
			fragment: "future",
		},
		{
			name: "start earlier today",
			mutate: func(p *CreateParams) {
				p.Date = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
				p.Start = timeofday.MustParse("09:00")
				p.End = timeofday.MustParse("11:00")
			},
			fragment: "future",
		},
		{
			name: "end before start",
			mutate: func(p *CreateParams) {
				p.Start = timeofday.MustParse("12:00")
				p.End = timeofday.MustParse("10:00")
			},
			fragment: "end time",
		},
		{
			name: "too short",
			mutate: func(p *CreateParams) {
				p.End = timeofday.MustParse("10:30")
			},
			fragment: "between 1 and 12 hours",
		},
		{
			name: "too long",
			mutate: func(p *CreateParams) {
				p.Start = timeofday.MustParse("08:00")
				p.End = timeofday.MustParse("21:30")
			},
			fragment: "between 1 and 12 hours",
		},
		{
			name: "category and custom service together",
			mutate: func(p *CreateParams) {
				p.CategoryID = "cat-1"
				p.CustomService = "city tour"
			},
			fragment: "not both",
		},
		{
			name:     "bad meeting type",
			mutate:   func(p *CreateParams) { p.MeetingType = "telepathic" },
			fragment: "meeting type",
		},
		{
			name:     "missing companion",
			mutate:   func(p *CreateParams) { p.CompanionID = "" },
			fragment: "companion id is required",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			params := validParams()
			c.mutate(&params)
			_, err := NewBooking(params)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !fault.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), c.fragment) {
				t.Fatalf("error %q does not contain %q", err.Error(), c.fragment)
			}
		})
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		party   Party
		allowed bool
	}{
		{StatusPending, StatusConfirmed, PartyCompanion, true},
		{StatusPending, StatusConfirmed, PartyClient, false},
		{StatusPending, StatusCancelled, PartyClient, true},
		{StatusPending, StatusCancelled, PartyCompanion, true},
		{StatusPending, StatusCompleted, PartyCompanion, false},
		{StatusConfirmed, StatusCancelled, PartyClient, true},
		{StatusConfirmed, StatusCancelled, PartyCompanion, true},
		{StatusConfirmed, StatusCompleted, PartyCompanion, true},
		{StatusConfirmed, StatusCompleted, PartyClient, false},
		{StatusConfirmed, StatusNoShow, PartyCompanion, true},
		{StatusConfirmed, StatusNoShow, PartyClient, false},
		{StatusCancelled, StatusPending, PartyCompanion, false},
		{StatusCompleted, StatusCancelled, PartyCompanion, false},
		{StatusNoShow, StatusConfirmed, PartyCompanion, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to, c.party); got != c.allowed {
			t.Fatalf("CanTransition(%s, %s, %s) = %v, expected %v", c.from, c.to, c.party, got, c.allowed)
		}
	}
}

func TestTransitionTo(t *testing.T) {
	b, err := NewBooking(validParams())
	if err != nil {
		t.Fatal(err)
	}
	b.ClearEvents()

	if err := b.TransitionTo(StatusConfirmed, PartyCompanion, testNow); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("status = %s", b.Status)
	}
	if len(b.Events()) != 1 || b.Events()[0].EventName() != "booking.status_changed" {
		t.Fatalf("events = %v", b.Events())
	}

	err = b.TransitionTo(StatusCompleted, PartyClient, testNow)
	if err == nil {
		t.Fatal("client completed a booking")
	}
	if !fault.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if !strings.Contains(err.Error(), "confirmed") || !strings.Contains(err.Error(), "completed") {
		t.Fatalf("error %q does not name the transition pair", err.Error())
	}

	if err := b.TransitionTo(StatusCompleted, PartyCompanion, testNow); err != nil {
		t.Fatalf("companion complete failed: %v", err)
	}
	if err := b.TransitionTo(StatusCancelled, PartyCompanion, testNow); err == nil {
		t.Fatal("terminal state accepted a transition")
	}
}

func TestParty(t *testing.T) {
	b, err := NewBooking(validParams())
	if err != nil {
		t.Fatal(err)
	}
	if party, ok := b.Party("client-1"); !ok || party != PartyClient {
		t.Fatalf("party = %s, %v", party, ok)
	}
	if party, ok := b.Party("comp-1"); !ok || party != PartyCompanion {
		t.Fatalf("party = %s, %v", party, ok)
	}
	if _, ok := b.Party("stranger"); ok {
		t.Fatal("stranger resolved to a party")
	}
}

func TestOverlapsInterval(t *testing.T) {
	b, err := NewBooking(validParams())
	if err != nil {
		t.Fatal(err)
	}
	if !b.OverlapsInterval(timeofday.MustParse("11:00"), timeofday.MustParse("13:00")) {
		t.Fatal("expected overlap")
	}
	if b.OverlapsInterval(timeofday.MustParse("12:00"), timeofday.MustParse("13:00")) {
		t.Fatal("touching intervals must not overlap")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Confirmed "); !ok || s != StatusConfirmed {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("paused"); ok {
		t.Fatal("unknown status accepted")
	}
}
