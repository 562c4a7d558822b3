package availability

import (
	"context"
	"testing"
	"time"

	domainbooking "meytle/internal/domain/booking"
	domaincompanion "meytle/internal/domain/companion"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
	"meytle/internal/infra/storage/memory"
)

const testCompanion = "companion-1"

func nextMonday() time.Time {
	date := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func newTestFactory(t *testing.T, approved bool) *memory.Factory {
	t.Helper()
	factory := &memory.Factory{
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		BookingRepo:      memory.NewBookingRepository(),
		CompanionRepo:    memory.NewCompanionRepository(),
		CatalogRepo:      memory.NewCatalogRepository(),
		ReviewsRepo:      memory.NewReviewsRepository(),
		UsersRepo:        memory.NewUserRepository(),
		AuditRepo:        memory.NewAuditRepository(),
	}
	now := time.Now().UTC()
	profile, err := domaincompanion.Apply(domaincompanion.ApplyParams{
		ID:          testCompanion,
		DisplayName: "Jordan",
		Now:         now,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if approved {
		if err := profile.Approve(now); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	profile.ClearEvents()
	if err := factory.CompanionRepo.Save(context.Background(), profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	return factory
}

func weekdaySlots() []SlotInput {
	return []SlotInput{
		{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: "monday", StartTime: "14:00", EndTime: "18:00"},
		{DayOfWeek: "friday", StartTime: "10:00", EndTime: "16:00"},
	}
}

func TestSetWeeklyReplacesSchedule(t *testing.T) {
	factory := newTestFactory(t, true)
	handler := &SetWeeklyHandler{UoWFactory: factory, Audit: factory.AuditRepo}
	ctx := context.Background()

	result, err := handler.Handle(ctx, SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots:       weekdaySlots(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Schedule.Slots) != 3 {
		t.Fatalf("slot count = %d, want 3", len(result.Schedule.Slots))
	}
	if result.Schedule.Slots[0].DayOfWeek != "monday" || result.Schedule.Slots[0].StartTime != "09:00" {
		t.Fatalf("first slot = %+v, want monday 09:00", result.Schedule.Slots[0])
	}

	// A second replacement discards the earlier set entirely.
	result, err = handler.Handle(ctx, SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots:       []SlotInput{{DayOfWeek: "sunday", StartTime: "08:00", EndTime: "10:00"}},
	})
	if err != nil {
		t.Fatalf("second Handle: %v", err)
	}
	if len(result.Schedule.Slots) != 1 || result.Schedule.Slots[0].DayOfWeek != "sunday" {
		t.Fatalf("schedule after replacement = %+v", result.Schedule.Slots)
	}

	records, err := factory.AuditRepo.ListBySubject(ctx, testCompanion, 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("audit records = %d, want 2", len(records))
	}
}

func TestSetWeeklyRejectsOverlap(t *testing.T) {
	factory := newTestFactory(t, true)
	handler := &SetWeeklyHandler{UoWFactory: factory}

	_, err := handler.Handle(context.Background(), SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots: []SlotInput{
			{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: "monday", StartTime: "11:00", EndTime: "14:00"},
		},
	})
	if !fault.IsConflict(err) {
		t.Fatalf("overlap error = %v, want conflict", err)
	}
}

func TestSetWeeklyRequiresApproval(t *testing.T) {
	factory := newTestFactory(t, false)
	handler := &SetWeeklyHandler{UoWFactory: factory}

	_, err := handler.Handle(context.Background(), SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots:       weekdaySlots(),
	})
	if !fault.IsAuthorization(err) {
		t.Fatalf("unapproved error = %v, want authorization", err)
	}
}

func TestSetWeeklyRejectsBadTimes(t *testing.T) {
	factory := newTestFactory(t, true)
	handler := &SetWeeklyHandler{UoWFactory: factory}

	cases := []struct {
		name string
		slot SlotInput
	}{
		{"unknown day", SlotInput{DayOfWeek: "someday", StartTime: "09:00", EndTime: "10:00"}},
		{"end before start", SlotInput{DayOfWeek: "monday", StartTime: "12:00", EndTime: "09:00"}},
		{"unparseable time", SlotInput{DayOfWeek: "monday", StartTime: "9am", EndTime: "10:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), SetWeeklyCommand{
				CompanionID: testCompanion,
				Slots:       []SlotInput{tc.slot},
			})
			if !fault.IsValidation(err) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}
}

func TestOpenSlotsBlocksWholeSlot(t *testing.T) {
	factory := newTestFactory(t, true)
	ctx := context.Background()

	setHandler := &SetWeeklyHandler{UoWFactory: factory}
	if _, err := setHandler.Handle(ctx, SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots:       weekdaySlots(),
	}); err != nil {
		t.Fatalf("set weekly: %v", err)
	}

	date := nextMonday()
	start, _ := timeofday.Parse("10:00")
	end, _ := timeofday.Parse("11:00")
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:            "bk-1",
		ClientID:      "client-1",
		CompanionID:   testCompanion,
		Date:          date,
		Start:         start,
		End:           end,
		Total:         money.Must(5000, "USD"),
		CustomService: "walk",
		MeetingType:   domainbooking.MeetingVirtual,
	})
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	booking.ClearEvents()
	if err := factory.BookingRepo.Save(ctx, booking); err != nil {
		t.Fatalf("save booking: %v", err)
	}

	openHandler := &OpenSlotsHandler{UoWFactory: factory}
	day, err := openHandler.Handle(ctx, OpenSlotsQuery{CompanionID: testCompanion, Date: date.Format("2006-01-02")})
	if err != nil {
		t.Fatalf("open slots: %v", err)
	}
	if day.TotalSlots != 2 || day.AvailableSlots != 1 || day.BookedSlots != 1 {
		t.Fatalf("summary = %d/%d/%d, want total 2 available 1 booked 1",
			day.TotalSlots, day.AvailableSlots, day.BookedSlots)
	}
	// The partially booked morning slot is withheld whole.
	if len(day.Slots) != 1 || day.Slots[0].StartTime != "14:00" {
		t.Fatalf("open = %+v, want just the 14:00 slot", day.Slots)
	}
	if !day.IsAvailable {
		t.Fatal("day should still be available")
	}
}

func TestCalendarRangeTooLong(t *testing.T) {
	factory := newTestFactory(t, true)
	handler := &CalendarHandler{UoWFactory: factory}

	_, err := handler.Handle(context.Background(), CalendarQuery{
		CompanionID: testCompanion,
		From:        "2027-01-01",
		To:          "2027-06-01",
	})
	if !fault.IsValidation(err) {
		t.Fatalf("long range error = %v, want validation", err)
	}
}
