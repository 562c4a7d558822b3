package availability

import (
	"context"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainavailability "meytle/internal/domain/availability"
	domainuser "meytle/internal/domain/user"
)

const getWeeklyKey = "availability.get_weekly"

// GetWeeklyQuery retrieves a companion's stored weekly pattern. Public
// callers see only active slots; IncludeInactive is for the owner's own
// edit view.
type GetWeeklyQuery struct {
	CompanionID     string
	IncludeInactive bool
}

func (q GetWeeklyQuery) Key() string { return getWeeklyKey }

type GetWeeklyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetWeeklyHandler) Handle(ctx context.Context, q GetWeeklyQuery) (dto.WeeklySchedule, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.WeeklySchedule{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	companionID := domainuser.ID(q.CompanionID)
	if _, err := unit.Companions().ByID(execCtx, companionID); err != nil {
		return dto.WeeklySchedule{}, err
	}
	slots, err := unit.Availability().WeeklyByCompanion(execCtx, companionID)
	if err != nil {
		return dto.WeeklySchedule{}, err
	}
	if !q.IncludeInactive {
		visible := slots[:0]
		for _, slot := range slots {
			if slot.Active {
				visible = append(visible, slot)
			}
		}
		slots = visible
	}
	domainavailability.SortWeek(slots)
	return dto.MapWeeklySchedule(q.CompanionID, slots), nil
}

var _ queries.Handler[GetWeeklyQuery, dto.WeeklySchedule] = (*GetWeeklyHandler)(nil)
