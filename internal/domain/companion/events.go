package companion

import (
	"time"

	"meytle/internal/domain/user"
)

type ApplicationSubmitted struct {
	CompanionID user.ID
	At          time.Time
}

func (e ApplicationSubmitted) EventName() string     { return "companion.application_submitted" }
func (e ApplicationSubmitted) AggregateID() string   { return string(e.CompanionID) }
func (e ApplicationSubmitted) OccurredAt() time.Time { return e.At }

type ApplicationApproved struct {
	CompanionID user.ID
	At          time.Time
}

func (e ApplicationApproved) EventName() string     { return "companion.application_approved" }
func (e ApplicationApproved) AggregateID() string   { return string(e.CompanionID) }
func (e ApplicationApproved) OccurredAt() time.Time { return e.At }

type ApplicationRejected struct {
	CompanionID user.ID
	Reason      string
	At          time.Time
}

func (e ApplicationRejected) EventName() string     { return "companion.application_rejected" }
func (e ApplicationRejected) AggregateID() string   { return string(e.CompanionID) }
func (e ApplicationRejected) OccurredAt() time.Time { return e.At }
