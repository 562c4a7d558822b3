package availability

import (
	"context"
	"time"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainavailability "meytle/internal/domain/availability"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const calendarKey = "availability.calendar"

// maxCalendarDays caps a single calendar request.
const maxCalendarDays = 92

// CalendarQuery resolves day summaries across an inclusive date range.
type CalendarQuery struct {
	CompanionID string
	From        string
	To          string
}

func (q CalendarQuery) Key() string { return calendarKey }

type CalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CalendarHandler) Handle(ctx context.Context, q CalendarQuery) (dto.Calendar, error) {
	from, err := parseDate(q.From)
	if err != nil {
		return dto.Calendar{}, err
	}
	to, err := parseDate(q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	if to.Before(from) {
		return dto.Calendar{}, fault.Validationf("to", "range end must not precede range start")
	}
	days := int(to.Sub(from)/(24*time.Hour)) + 1
	if days > maxCalendarDays {
		return dto.Calendar{}, fault.Validationf("to", "calendar range may cover at most %d days", maxCalendarDays)
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	companionID := domainuser.ID(q.CompanionID)
	if _, err := unit.Companions().ByID(execCtx, companionID); err != nil {
		return dto.Calendar{}, err
	}
	slots, err := unit.Availability().WeeklyByCompanion(execCtx, companionID)
	if err != nil {
		return dto.Calendar{}, err
	}

	summaries := make([]domainavailability.DaySummary, 0, days)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		active, err := unit.Booking().ListActiveOnDate(execCtx, companionID, date)
		if err != nil {
			return dto.Calendar{}, err
		}
		booked := make([]domainavailability.BookedInterval, 0, len(active))
		for _, booking := range active {
			booked = append(booked, domainavailability.BookedInterval{
				Start: booking.Start,
				End:   booking.End,
			})
		}
		summaries = append(summaries, domainavailability.Summarize(date, slots, booked))
	}
	return dto.MapCalendar(q.CompanionID, summaries), nil
}

var _ queries.Handler[CalendarQuery, dto.Calendar] = (*CalendarHandler)(nil)
