package availability

import (
	"context"
	"testing"
)

func TestGetWeeklyFiltersInactiveSlots(t *testing.T) {
	factory := newTestFactory(t, true)
	ctx := context.Background()
	inactive := false
	if _, err := (&SetWeeklyHandler{UoWFactory: factory}).Handle(ctx, SetWeeklyCommand{
		CompanionID: testCompanion,
		Slots: []SlotInput{
			{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: "tuesday", StartTime: "09:00", EndTime: "12:00", Active: &inactive},
		},
	}); err != nil {
		t.Fatalf("set weekly: %v", err)
	}

	handler := &GetWeeklyHandler{UoWFactory: factory}

	public, err := handler.Handle(ctx, GetWeeklyQuery{CompanionID: testCompanion})
	if err != nil {
		t.Fatalf("public Handle: %v", err)
	}
	if len(public.Slots) != 1 || public.Slots[0].DayOfWeek != "monday" {
		t.Fatalf("public slots = %+v, want only the active monday slot", public.Slots)
	}

	owner, err := handler.Handle(ctx, GetWeeklyQuery{CompanionID: testCompanion, IncludeInactive: true})
	if err != nil {
		t.Fatalf("owner Handle: %v", err)
	}
	if len(owner.Slots) != 2 {
		t.Fatalf("owner slots = %d, want 2 including the disabled one", len(owner.Slots))
	}
}
