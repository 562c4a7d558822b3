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

const openSlotsKey = "availability.open_slots"

// OpenSlotsQuery resolves one companion's bookable windows on a single date.
type OpenSlotsQuery struct {
	CompanionID string
	Date        string
}

func (q OpenSlotsQuery) Key() string { return openSlotsKey }

type OpenSlotsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OpenSlotsHandler) Handle(ctx context.Context, q OpenSlotsQuery) (dto.DayAvailability, error) {
	date, err := parseDate(q.Date)
	if err != nil {
		return dto.DayAvailability{}, err
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	companionID := domainuser.ID(q.CompanionID)
	if _, err := unit.Companions().ByID(execCtx, companionID); err != nil {
		return dto.DayAvailability{}, err
	}
	summary, err := resolveDay(execCtx, unit, companionID, date)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	return dto.MapDayAvailability(summary), nil
}

func resolveDay(ctx context.Context, unit uow.UnitOfWork, companionID domainuser.ID, date time.Time) (domainavailability.DaySummary, error) {
	slots, err := unit.Availability().WeeklyByCompanion(ctx, companionID)
	if err != nil {
		return domainavailability.DaySummary{}, err
	}
	active, err := unit.Booking().ListActiveOnDate(ctx, companionID, date)
	if err != nil {
		return domainavailability.DaySummary{}, err
	}
	booked := make([]domainavailability.BookedInterval, 0, len(active))
	for _, booking := range active {
		booked = append(booked, domainavailability.BookedInterval{
			Start: booking.Start,
			End:   booking.End,
		})
	}
	return domainavailability.Summarize(date, slots, booked), nil
}

func parseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fault.Validationf("date", "date must be YYYY-MM-DD, got %q", value)
	}
	return date, nil
}

var _ queries.Handler[OpenSlotsQuery, dto.DayAvailability] = (*OpenSlotsHandler)(nil)
