package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand creates a new review for a completed booking.
type SubmitReviewCommand struct {
	BookingID  string
	ReviewerID string
	Rating     int
	Text       string
	Now        time.Time
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

// Validate runs on the bus before the transaction is opened.
func (c SubmitReviewCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return fault.Validationf("booking_id", "booking id is required")
	}
	if strings.TrimSpace(c.ReviewerID) == "" {
		return fault.Validationf("reviewer_id", "reviewer id is required")
	}
	return nil
}

// SubmitReviewHandler validates and stores a new review, updating the
// companion's aggregate rating in the same transaction.
type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Review{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Review{}, err
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

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return dto.Review{}, err
	}
	// A booking that is not the reviewer's own completed visit is reported
	// as absent rather than revealing whose it is.
	if booking.ClientID != domainuser.ID(cmd.ReviewerID) || booking.Status != domainbooking.StatusCompleted {
		return dto.Review{}, fault.NotFound("reviewable booking")
	}

	if existing, err := unit.Reviews().ByBooking(ctx, booking.ID); err == nil && existing != nil {
		return dto.Review{}, fault.Conflictf("booking %s already has a review", booking.ID)
	} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
		return dto.Review{}, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:         domainreviews.ReviewID(uuid.NewString()),
		BookingID:  booking.ID,
		ReviewerID: booking.ClientID,
		RevieweeID: booking.CompanionID,
		Rating:     cmd.Rating,
		Text:       cmd.Text,
		CreatedAt:  now,
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}

	if err := recalculateCompanionRating(ctx, unit, booking.CompanionID, now); err != nil {
		return dto.Review{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Review{}, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "booking_id", booking.ID, "companion_id", booking.CompanionID, "rating", cmd.Rating)
	}
	return dto.MapReview(review), nil
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
