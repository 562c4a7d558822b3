package availability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/uow"
	domainaudit "meytle/internal/domain/audit"
	domainavailability "meytle/internal/domain/availability"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/timeofday"
)

const setWeeklyKey = "availability.set_weekly"

type SlotInput struct {
	DayOfWeek string
	StartTime string
	EndTime   string
	Active    *bool
	Services  []string
}

type SetWeeklyCommand struct {
	CompanionID string
	Slots       []SlotInput
	Origin      string
}

func (c SetWeeklyCommand) Key() string { return setWeeklyKey }

type SetWeeklyResult struct {
	Schedule dto.WeeklySchedule `json:"schedule"`
}

type SetWeeklyHandler struct {
	UoWFactory uow.UoWFactory
	// Audit is appended outside the transaction; a failed append never
	// rolls the replacement back.
	Audit  domainaudit.Repository
	Logger *slog.Logger
}

var ErrUnitOfWorkRequired = errors.New("availability: unit of work required")

func (h *SetWeeklyHandler) Handle(ctx context.Context, cmd SetWeeklyCommand) (*SetWeeklyResult, error) {
	slots, err := parseSlots(cmd.Slots)
	if err != nil {
		return nil, err
	}
	if err := domainavailability.ValidateWeek(slots); err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.InjectUnitContext(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	companionID := domainuser.ID(cmd.CompanionID)
	profile, err := unit.Companions().ByID(ctx, companionID)
	if err != nil {
		return nil, err
	}
	if !profile.Bookable() {
		return nil, fault.Authorizationf("companion profile is not approved for scheduling")
	}

	previous, err := unit.Availability().WeeklyByCompanion(ctx, companionID)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		slots[i].CompanionID = companionID
	}
	if err := unit.Availability().ReplaceWeekly(ctx, companionID, slots); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	h.appendAudit(ctx, companionID, previous, slots, cmd.Origin)

	domainavailability.SortWeek(slots)
	return &SetWeeklyResult{Schedule: dto.MapWeeklySchedule(cmd.CompanionID, slots)}, nil
}

func (h *SetWeeklyHandler) appendAudit(ctx context.Context, companionID domainuser.ID, previous, current []domainavailability.WeeklySlot, origin string) {
	if h.Audit == nil {
		return
	}
	oldSnapshot, err := json.Marshal(dto.MapWeeklySchedule(string(companionID), previous).Slots)
	if err != nil {
		oldSnapshot = nil
	}
	newSnapshot, err := json.Marshal(dto.MapWeeklySchedule(string(companionID), current).Slots)
	if err != nil {
		newSnapshot = nil
	}
	record := domainaudit.Record{
		ID:          uuid.NewString(),
		Kind:        domainaudit.KindAvailabilityReplaced,
		ActorID:     companionID,
		SubjectID:   companionID,
		Origin:      origin,
		OldSnapshot: oldSnapshot,
		NewSnapshot: newSnapshot,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Audit.Append(ctx, record); err != nil && h.Logger != nil {
		h.Logger.Warn("availability audit append failed", "companion_id", companionID, "error", err)
	}
}

func parseSlots(inputs []SlotInput) ([]domainavailability.WeeklySlot, error) {
	slots := make([]domainavailability.WeeklySlot, 0, len(inputs))
	for _, input := range inputs {
		day, ok := domainavailability.ParseDay(input.DayOfWeek)
		if !ok {
			return nil, fault.Validationf("day_of_week", "unknown day %q", input.DayOfWeek)
		}
		start, err := timeofday.Parse(input.StartTime)
		if err != nil {
			return nil, fault.Validationf("start_time", "%v", err)
		}
		end, err := timeofday.Parse(input.EndTime)
		if err != nil {
			return nil, fault.Validationf("end_time", "%v", err)
		}
		active := true
		if input.Active != nil {
			active = *input.Active
		}
		slots = append(slots, domainavailability.WeeklySlot{
			Day:      day,
			Start:    start,
			End:      end,
			Active:   active,
			Services: input.Services,
		})
	}
	return slots, nil
}

var _ commands.Handler[SetWeeklyCommand, *SetWeeklyResult] = (*SetWeeklyHandler)(nil)
