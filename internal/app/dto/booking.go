package dto

import (
	"time"

	domainbooking "meytle/internal/domain/booking"
	"meytle/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingSummary struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	CompanionID     string    `json:"companion_id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CategoryID      string    `json:"category_id,omitempty"`
	CustomService   string    `json:"custom_service,omitempty"`
	MeetingType     string    `json:"meeting_type"`
	MeetingLocation string    `json:"meeting_location,omitempty"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	Total           MoneyDTO  `json:"total"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

// ClientBookingSummary enriches a booking with directory data for the
// client's own dashboard.
type ClientBookingSummary struct {
	BookingSummary
	CompanionName   string `json:"companion_name,omitempty"`
	CompanionPhoto  string `json:"companion_photo,omitempty"`
	ReviewSubmitted bool   `json:"review_submitted"`
	CanReview       bool   `json:"can_review"`
}

type ClientBookingCollection struct {
	Items []ClientBookingSummary `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapBookingSummary(booking *domainbooking.Booking) BookingSummary {
	if booking == nil {
		return BookingSummary{}
	}
	return BookingSummary{
		ID:              string(booking.ID),
		ClientID:        string(booking.ClientID),
		CompanionID:     string(booking.CompanionID),
		Date:            booking.Date.Format("2006-01-02"),
		StartTime:       booking.Start.String(),
		EndTime:         booking.End.String(),
		DurationMinutes: int(booking.DurationMinutes()),
		Status:          string(booking.Status),
		CategoryID:      string(booking.CategoryID),
		CustomService:   booking.CustomService,
		MeetingType:     string(booking.MeetingType),
		MeetingLocation: booking.MeetingLocation,
		SpecialRequests: booking.SpecialRequests,
		Total:           MapMoney(booking.Total),
		CreatedAt:       booking.CreatedAt,
		UpdatedAt:       booking.UpdatedAt,
	}
}

func MapBookingCollection(bookings []*domainbooking.Booking) BookingCollection {
	items := make([]BookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		items = append(items, MapBookingSummary(booking))
	}
	return BookingCollection{Items: items}
}
