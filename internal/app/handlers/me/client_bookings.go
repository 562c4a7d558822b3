package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

const listMyBookingsKey = "me.bookings.list"

type ListMyBookingsQuery struct {
	ClientID string
}

func (q ListMyBookingsQuery) Key() string { return listMyBookingsKey }

// ListMyBookingsHandler builds the client dashboard view: each booking plus
// the companion's public name and whether a review can still be left.
type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (dto.ClientBookingCollection, error) {
	clientID := strings.TrimSpace(q.ClientID)
	if clientID == "" {
		return dto.ClientBookingCollection{}, errors.New("client id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ClientBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Booking().ListByClient(execCtx, domainuser.ID(clientID))
	if err != nil {
		return dto.ClientBookingCollection{}, err
	}

	profileCache := make(map[domainuser.ID]*domaincompanion.Profile)
	items := make([]dto.ClientBookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		profile, err := loadProfile(execCtx, unit.Companions(), booking.CompanionID, profileCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("companion profile missing for booking", "booking_id", booking.ID, "companion_id", booking.CompanionID, "error", err)
		}
		canReview := booking.Status == domainbooking.StatusCompleted
		reviewSubmitted := false
		if canReview {
			if existing, err := unit.Reviews().ByBooking(execCtx, booking.ID); err == nil && existing != nil {
				reviewSubmitted = true
				canReview = false
			} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) && h.Logger != nil {
				h.Logger.Warn("failed to check review", "booking_id", booking.ID, "error", err)
			}
		}
		item := dto.ClientBookingSummary{
			BookingSummary:  dto.MapBookingSummary(booking),
			ReviewSubmitted: reviewSubmitted,
			CanReview:       canReview,
		}
		if profile != nil {
			item.CompanionName = profile.DisplayName
			item.CompanionPhoto = profile.PhotoURL
		}
		items = append(items, item)
	}

	if h.Logger != nil {
		h.Logger.Debug("client bookings listed", "client_id", clientID, "count", len(items))
	}
	return dto.ClientBookingCollection{Items: items}, nil
}

func loadProfile(
	ctx context.Context,
	repo domaincompanion.Repository,
	id domainuser.ID,
	cache map[domainuser.ID]*domaincompanion.Profile,
) (*domaincompanion.Profile, error) {
	if profile, ok := cache[id]; ok {
		return profile, nil
	}
	profile, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = profile
	return profile, nil
}

var _ queries.Handler[ListMyBookingsQuery, dto.ClientBookingCollection] = (*ListMyBookingsHandler)(nil)
