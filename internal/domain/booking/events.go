package booking

import (
	"time"

	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
	"meytle/internal/domain/user"
)

type BookingRequested struct {
	BookingID   BookingID
	ClientID    user.ID
	CompanionID user.ID
	Date        time.Time
	Start       timeofday.Time
	End         timeofday.Time
	Total       money.Money
	At          time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID   BookingID
	ClientID    user.ID
	CompanionID user.ID
	From        Status
	To          Status
	By          Party
	At          time.Time
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
