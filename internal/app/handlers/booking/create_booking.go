package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/middleware"
	"meytle/internal/app/outbox"
	"meytle/internal/app/policies"
	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
)

const createBookingKey = "booking.create"

// defaultHourlyRate prices custom-service bookings with no category.
var defaultHourlyRate = money.Must(5000, "USD")

type CreateBookingCommand struct {
	CommandID       string
	ClientID        string
	CompanionID     string
	Date            string
	StartTime       string
	EndTime         string
	CategoryID      string
	CustomService   string
	SpecialRequests string
	MeetingType     string
	MeetingLocation string
	Lat             float64
	Lon             float64
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

// Validate runs on the bus before the transaction is opened.
func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fault.Validationf("client_id", "client id is required")
	}
	if strings.TrimSpace(c.CompanionID) == "" {
		return fault.Validationf("companion_id", "companion id is required")
	}
	return nil
}

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Addresses  policies.AddressValidatorPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	// DefaultRate prices custom-service bookings with no category. Zero
	// falls back to defaultHourlyRate.
	DefaultRate money.Money
	Logger      *slog.Logger
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	date, err := time.ParseInLocation("2006-01-02", cmd.Date, time.UTC)
	if err != nil {
		return nil, fault.Validationf("booking_date", "date must be YYYY-MM-DD, got %q", cmd.Date)
	}
	start, err := timeofday.Parse(cmd.StartTime)
	if err != nil {
		return nil, fault.Validationf("start_time", "%v", err)
	}
	end, err := timeofday.Parse(cmd.EndTime)
	if err != nil {
		return nil, fault.Validationf("end_time", "%v", err)
	}
	meetingType, ok := domainbooking.ParseMeetingType(cmd.MeetingType)
	if !ok {
		return nil, fault.Validationf("meeting_type", "meeting type must be in_person or virtual")
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
		return nil, fault.Conflictf("companion is not accepting bookings")
	}

	rate := h.hourlyRate()
	categoryID := domaincatalog.CategoryID(strings.TrimSpace(cmd.CategoryID))
	if categoryID != "" {
		category, err := unit.Catalog().ByID(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if !category.Active {
			return nil, fault.Validationf("category_id", "category %s is not active", categoryID)
		}
		rate = category.BaseHourlyRate
	} else if strings.TrimSpace(cmd.CustomService) == "" {
		return nil, fault.Validationf("service", "either a service category or a custom service is required")
	}

	if err := h.checkAddress(ctx, cmd, meetingType); err != nil {
		return nil, err
	}

	if !end.After(start) {
		return nil, fault.Validationf("end_time", "end time must be after start time")
	}
	total := rate.PerMinutes(int64(end.Sub(start) / time.Minute))

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		ClientID:        domainuser.ID(cmd.ClientID),
		CompanionID:     companionID,
		Date:            date,
		Start:           start,
		End:             end,
		Total:           total,
		CategoryID:      categoryID,
		CustomService:   cmd.CustomService,
		SpecialRequests: cmd.SpecialRequests,
		MeetingLocation: cmd.MeetingLocation,
		MeetingType:     meetingType,
	})
	if err != nil {
		return nil, err
	}

	// The conflict check runs inside the same transaction as the insert so
	// two concurrent requests cannot both pass it. Stores with snapshot
	// isolation additionally serialize writers on the companion-day.
	if locker, ok := unit.Booking().(domainbooking.DateLocker); ok {
		if err := locker.LockDate(ctx, companionID, booking.Date); err != nil {
			return nil, err
		}
	}
	active, err := unit.Booking().ListActiveOnDate(ctx, companionID, booking.Date)
	if err != nil {
		return nil, err
	}
	for _, other := range active {
		if other.OverlapsInterval(booking.Start, booking.End) {
			return nil, fault.Conflictf("companion already has a booking from %s to %s on %s",
				other.Start, other.End, booking.Date.Format("2006-01-02"))
		}
	}

	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.encoder(), &booking.EventRecorder); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", booking.ID,
			"client_id", booking.ClientID,
			"companion_id", booking.CompanionID,
			"date", cmd.Date,
		)
	}
	return &CreateBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Total:     booking.Total.Amount,
		Currency:  booking.Total.Currency,
	}, nil
}

func (h *CreateBookingHandler) checkAddress(ctx context.Context, cmd CreateBookingCommand, meetingType domainbooking.MeetingType) error {
	if h.Addresses == nil || meetingType != domainbooking.MeetingInPerson {
		return nil
	}
	check, err := h.Addresses.Validate(ctx, policies.MeetingLocation{
		Address:     cmd.MeetingLocation,
		MeetingType: meetingType,
		Lat:         cmd.Lat,
		Lon:         cmd.Lon,
	})
	if err != nil {
		// The validator being down must not block bookings.
		if h.Logger != nil {
			h.Logger.Warn("address validation unavailable", "error", err)
		}
		return nil
	}
	if !check.IsValid {
		message := "meeting location failed validation"
		if len(check.Errors) > 0 {
			message = check.Errors[0]
		}
		return fault.Validationf("meeting_location", "%s", message)
	}
	for _, warning := range check.Warnings {
		if h.Logger != nil {
			h.Logger.Warn("address validation warning", "warning", warning)
		}
	}
	return nil
}

func (h *CreateBookingHandler) hourlyRate() money.Money {
	if h.DefaultRate.Amount > 0 {
		return h.DefaultRate
	}
	return defaultHourlyRate
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
