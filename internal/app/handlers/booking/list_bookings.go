package booking

import (
	"context"
	"sort"
	"strings"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const (
	listClientBookingsKey    = "booking.client.list"
	listCompanionBookingsKey = "booking.companion.list"
)

// ListClientBookingsQuery retrieves bookings made by a client, newest-first.
type ListClientBookingsQuery struct {
	ClientID string
	Status   string
}

func (q ListClientBookingsQuery) Key() string { return listClientBookingsKey }

type ListClientBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListClientBookingsHandler) Handle(ctx context.Context, q ListClientBookingsQuery) (dto.BookingCollection, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Booking().ListByClient(execCtx, domainuser.ID(q.ClientID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return collect(bookings, status), nil
}

// ListCompanionBookingsQuery retrieves bookings addressed to a companion.
type ListCompanionBookingsQuery struct {
	CompanionID string
	Status      string
}

func (q ListCompanionBookingsQuery) Key() string { return listCompanionBookingsKey }

type ListCompanionBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListCompanionBookingsHandler) Handle(ctx context.Context, q ListCompanionBookingsQuery) (dto.BookingCollection, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Booking().ListByCompanion(execCtx, domainuser.ID(q.CompanionID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return collect(bookings, status), nil
}

func parseStatusFilter(value string) (domainbooking.Status, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	status, ok := domainbooking.ParseStatus(value)
	if !ok {
		return "", fault.Validationf("status", "unknown booking status %q", value)
	}
	return status, nil
}

func collect(bookings []*domainbooking.Booking, status domainbooking.Status) dto.BookingCollection {
	filtered := bookings
	if status != "" {
		filtered = filtered[:0:0]
		for _, booking := range bookings {
			if booking.Status == status {
				filtered = append(filtered, booking)
			}
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return dto.MapBookingCollection(filtered)
}

var _ queries.Handler[ListClientBookingsQuery, dto.BookingCollection] = (*ListClientBookingsHandler)(nil)
var _ queries.Handler[ListCompanionBookingsQuery, dto.BookingCollection] = (*ListCompanionBookingsHandler)(nil)
