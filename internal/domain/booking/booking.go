package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"meytle/internal/domain/catalog"
	"meytle/internal/domain/shared/events"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
	"meytle/internal/domain/user"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
)

const (
	// MinDuration and MaxDuration bound a single booking.
	MinDuration = time.Hour
	MaxDuration = 12 * time.Hour
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ParseStatus recognises a booking status value.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusNoShow:
		return StatusNoShow, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	default:
		return false
	}
}

// Party identifies which side of the booking an actor stands on.
type Party string

const (
	PartyClient    Party = "client"
	PartyCompanion Party = "companion"
)

type MeetingType string

const (
	MeetingInPerson MeetingType = "in_person"
	MeetingVirtual  MeetingType = "virtual"
)

// ParseMeetingType recognises a meeting type value.
func ParseMeetingType(value string) (MeetingType, bool) {
	switch MeetingType(strings.ToLower(strings.TrimSpace(value))) {
	case MeetingInPerson:
		return MeetingInPerson, true
	case MeetingVirtual:
		return MeetingVirtual, true
	default:
		return "", false
	}
}

// Booking is one concrete, dated commitment between a client and a companion.
// Bookings are never deleted; terminal states stay on record for history and
// review linkage.
type Booking struct {
	ID              BookingID
	ClientID        user.ID
	CompanionID     user.ID
	Date            time.Time // calendar date, UTC midnight
	Start           timeofday.Time
	End             timeofday.Time
	Status          Status
	Total           money.Money
	CategoryID      catalog.CategoryID
	CustomService   string
	SpecialRequests string
	MeetingLocation string
	MeetingType     MeetingType
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByClient(ctx context.Context, clientID user.ID) ([]*Booking, error)
	ListByCompanion(ctx context.Context, companionID user.ID) ([]*Booking, error)
	// ListActiveOnDate returns the companion's pending and confirmed
	// bookings for one calendar date. Conflict checks and slot resolution
	// both run off this query.
	ListActiveOnDate(ctx context.Context, companionID user.ID, date time.Time) ([]*Booking, error)
}

// DateLocker serializes writers on one companion-day. Repositories backed by
// snapshot-isolated stores implement it so the conflict check and the insert
// that follows see a serialized view; stores with a global writer lock do not
// need it.
type DateLocker interface {
	LockDate(ctx context.Context, companionID user.ID, date time.Time) error
}

type CreateParams struct {
	ID              BookingID
	ClientID        user.ID
	CompanionID     user.ID
	Date            time.Time
	Start           timeofday.Time
	End             timeofday.Time
	Total           money.Money
	CategoryID      catalog.CategoryID
	CustomService   string
	SpecialRequests string
	MeetingLocation string
	MeetingType     MeetingType
	Now             time.Time
}

// NewBooking validates and builds a pending booking. Checks that need other
// records (companion approval, category lookup, conflicts) belong to the
// application layer; everything expressible on the params alone lives here.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, fault.Validationf("id", "booking id is required")
	}
	if strings.TrimSpace(string(params.ClientID)) == "" {
		return nil, fault.Validationf("client_id", "client id is required")
	}
	if strings.TrimSpace(string(params.CompanionID)) == "" {
		return nil, fault.Validationf("companion_id", "companion id is required")
	}
	if params.ClientID == params.CompanionID {
		return nil, fault.Validationf("companion_id", "clients cannot book themselves")
	}
	if params.Date.IsZero() {
		return nil, fault.Validationf("booking_date", "booking date is required")
	}
	if !params.Start.Valid() || !params.End.Valid() {
		return nil, fault.Validationf("time", "times must fall within the day")
	}
	if !params.End.After(params.Start) {
		return nil, fault.Validationf("end_time", "end time must be after start time")
	}
	duration := params.End.Sub(params.Start)
	if duration < MinDuration || duration > MaxDuration {
		return nil, fault.Validationf("duration", "booking must last between 1 and 12 hours, got %s", duration)
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if !params.Start.On(params.Date.UTC()).After(now) {
		return nil, fault.Validationf("booking_date", "booking start must be in the future")
	}
	hasCategory := strings.TrimSpace(string(params.CategoryID)) != ""
	hasCustom := strings.TrimSpace(params.CustomService) != ""
	if hasCategory && hasCustom {
		return nil, fault.Validationf("service", "choose either a service category or a custom service, not both")
	}
	if params.MeetingType != MeetingInPerson && params.MeetingType != MeetingVirtual {
		return nil, fault.Validationf("meeting_type", "meeting type must be in_person or virtual")
	}

	date := params.Date.UTC().Truncate(24 * time.Hour)
	b := &Booking{
		ID:              params.ID,
		ClientID:        params.ClientID,
		CompanionID:     params.CompanionID,
		Date:            date,
		Start:           params.Start,
		End:             params.End,
		Status:          StatusPending,
		Total:           params.Total,
		CategoryID:      params.CategoryID,
		CustomService:   strings.TrimSpace(params.CustomService),
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		MeetingLocation: strings.TrimSpace(params.MeetingLocation),
		MeetingType:     params.MeetingType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		CompanionID: b.CompanionID,
		Date:        b.Date,
		Start:       b.Start,
		End:         b.End,
		Total:       b.Total,
		At:          now,
	})
	return b, nil
}

// transitions holds the allowed status moves per acting party.
var transitions = map[Status]map[Status]map[Party]bool{
	StatusPending: {
		StatusConfirmed: {PartyCompanion: true},
		StatusCancelled: {PartyClient: true, PartyCompanion: true},
	},
	StatusConfirmed: {
		StatusCancelled: {PartyClient: true, PartyCompanion: true},
		StatusCompleted: {PartyCompanion: true},
		StatusNoShow:    {PartyCompanion: true},
	},
}

// CanTransition reports whether the party may move a booking between the two
// statuses.
func CanTransition(from, to Status, party Party) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	parties, ok := targets[to]
	if !ok {
		return false
	}
	return parties[party]
}

// Party resolves which side of this booking the actor is on.
func (b *Booking) Party(actorID user.ID) (Party, bool) {
	switch actorID {
	case b.ClientID:
		return PartyClient, true
	case b.CompanionID:
		return PartyCompanion, true
	default:
		return "", false
	}
}

// TransitionTo applies a status change on behalf of a party, enforcing the
// transition table. Disallowed moves name the from→to pair.
func (b *Booking) TransitionTo(to Status, party Party, now time.Time) error {
	if !CanTransition(b.Status, to, party) {
		return fault.Authorizationf("transition %s→%s is not allowed for %s", b.Status, to, party)
	}
	from := b.Status
	b.Status = to
	b.touch(now)
	b.Record(BookingStatusChanged{
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		CompanionID: b.CompanionID,
		From:        from,
		To:          to,
		By:          party,
		At:          b.UpdatedAt,
	})
	return nil
}

// Active reports whether the booking still occupies its time range.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// OverlapsInterval applies the half-open interval test against another range
// on the same date.
func (b *Booking) OverlapsInterval(start, end timeofday.Time) bool {
	return timeofday.Overlaps(b.Start, b.End, start, end)
}

// DurationMinutes is the booked length in whole minutes.
func (b *Booking) DurationMinutes() int64 {
	return int64(b.End.Sub(b.Start) / time.Minute)
}

func (b *Booking) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
}
