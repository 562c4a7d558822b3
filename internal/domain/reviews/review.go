package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"meytle/internal/domain/booking"
	"meytle/internal/domain/shared/fault"
	"meytle/internal/domain/user"
)

var ErrNotFound = errors.New("reviews: not found")

const (
	MinTextLength = 10
	MaxTextLength = 500
)

type ReviewID string

// Review is an immutable, append-only record keyed one-to-one to a completed
// booking.
type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ReviewerID user.ID
	RevieweeID user.ID
	Rating     int
	Text       string
	CreatedAt  time.Time
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	// ListByReviewee pages reviews newest-first and returns the unpaged
	// total. limit 0 means "everything".
	ListByReviewee(ctx context.Context, revieweeID user.ID, limit, offset int) ([]*Review, int, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ReviewerID user.ID
	RevieweeID user.ID
	Rating     int
	Text       string
	CreatedAt  time.Time
}

// Submit validates and builds a review. Booking-state checks (completed,
// belongs to reviewer, no prior review) are application-layer concerns.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, fault.Validationf("rating", "rating must be between 1 and 5")
	}
	text := strings.TrimSpace(params.Text)
	if len(text) < MinTextLength || len(text) > MaxTextLength {
		return nil, fault.Validationf("text", "review text must be between %d and %d characters", MinTextLength, MaxTextLength)
	}
	return &Review{
		ID:         params.ID,
		BookingID:  params.BookingID,
		ReviewerID: params.ReviewerID,
		RevieweeID: params.RevieweeID,
		Rating:     params.Rating,
		Text:       text,
		CreatedAt:  params.CreatedAt.UTC(),
	}, nil
}

// Histogram counts reviews per star value 1..5. Index 0 is unused.
type Histogram [6]int

// HistogramOf tallies ratings from a full review list.
func HistogramOf(reviews []*Review) Histogram {
	var h Histogram
	for _, review := range reviews {
		if review.Rating >= 1 && review.Rating <= 5 {
			h[review.Rating]++
		}
	}
	return h
}

// Average computes the mean rating of a full review list, zero when empty.
func Average(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return float64(total) / float64(len(reviews))
}
