package dto

import (
	"time"

	domainreviews "meytle/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items         []Review    `json:"items"`
	Total         int         `json:"total"`
	AverageRating float64     `json:"average_rating"`
	Breakdown     map[int]int `json:"breakdown"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		ReviewerID: string(review.ReviewerID),
		RevieweeID: string(review.RevieweeID),
		Rating:     review.Rating,
		Text:       review.Text,
		CreatedAt:  review.CreatedAt,
	}
}

func MapReviewCollection(reviews []*domainreviews.Review, total int, average float64, histogram domainreviews.Histogram) ReviewCollection {
	items := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, MapReview(review))
	}
	breakdown := make(map[int]int, 5)
	for star := 1; star <= 5; star++ {
		breakdown[star] = histogram[star]
	}
	return ReviewCollection{
		Items:         items,
		Total:         total,
		AverageRating: average,
		Breakdown:     breakdown,
	}
}
