package policies

import (
	"context"

	domainbooking "meytle/internal/domain/booking"
)

// MeetingLocation is the destination a booking takes place at.
type MeetingLocation struct {
	Address     string
	MeetingType domainbooking.MeetingType
	Lat         float64
	Lon         float64
}

// AddressCheck is the validator's verdict. Errors block the booking; warnings
// are logged and otherwise ignored.
type AddressCheck struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// AddressValidatorPort delegates meeting-location validation to an external
// collaborator.
type AddressValidatorPort interface {
	Validate(ctx context.Context, location MeetingLocation) (AddressCheck, error)
}
