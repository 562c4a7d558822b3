package booking

import (
	"context"
	"log/slog"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/outbox"
	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const updateStatusKey = "booking.update_status"

type UpdateStatusCommand struct {
	BookingID string
	ActorID   string
	Status    string
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

type UpdateStatusResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	// Cancelled lists pending bookings auto-cancelled by a confirmation.
	Cancelled []string `json:"cancelled,omitempty"`
}

type UpdateStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*UpdateStatusResult, error) {
	target, ok := domainbooking.ParseStatus(cmd.Status)
	if !ok {
		return nil, fault.Validationf("status", "unknown booking status %q", cmd.Status)
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	var err error
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

	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	party, ok := booking.Party(domainuser.ID(cmd.ActorID))
	if !ok {
		return nil, fault.Authorizationf("actor is not a party to this booking")
	}

	now := time.Now().UTC()
	if err := booking.TransitionTo(target, party, now); err != nil {
		return nil, err
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.encoder(), &booking.EventRecorder); err != nil {
		return nil, err
	}

	var cancelled []string
	if target == domainbooking.StatusConfirmed {
		cancelled, err = h.cancelOverlappingPending(ctx, unit, booking, now)
		if err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("booking status changed",
			"booking_id", booking.ID,
			"status", booking.Status,
			"by", party,
			"auto_cancelled", len(cancelled),
		)
	}
	return &UpdateStatusResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Cancelled: cancelled,
	}, nil
}

// cancelOverlappingPending withdraws the companion's other pending requests
// that collide with the freshly confirmed interval.
func (h *UpdateStatusHandler) cancelOverlappingPending(ctx context.Context, unit uow.UnitOfWork, confirmed *domainbooking.Booking, now time.Time) ([]string, error) {
	active, err := unit.Booking().ListActiveOnDate(ctx, confirmed.CompanionID, confirmed.Date)
	if err != nil {
		return nil, err
	}
	var cancelled []string
	for _, other := range active {
		if other.ID == confirmed.ID || other.Status != domainbooking.StatusPending {
			continue
		}
		if !other.OverlapsInterval(confirmed.Start, confirmed.End) {
			continue
		}
		if err := other.TransitionTo(domainbooking.StatusCancelled, domainbooking.PartyCompanion, now); err != nil {
			return nil, err
		}
		if err := unit.Booking().Save(ctx, other); err != nil {
			return nil, err
		}
		if err := outbox.Stage(ctx, h.Outbox, h.encoder(), &other.EventRecorder); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, string(other.ID))
	}
	return cancelled, nil
}

func (h *UpdateStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[UpdateStatusCommand, *UpdateStatusResult] = (*UpdateStatusHandler)(nil)
