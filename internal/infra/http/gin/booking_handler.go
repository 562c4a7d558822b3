package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	bookingapp "meytle/internal/app/handlers/booking"
	"meytle/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	CompanionID     string  `json:"companion_id"`
	Date            string  `json:"booking_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	CategoryID      string  `json:"category_id"`
	CustomService   string  `json:"custom_service"`
	SpecialRequests string  `json:"special_requests"`
	MeetingType     string  `json:"meeting_type"`
	MeetingLocation string  `json:"meeting_location"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		ClientID:        user.ID,
		CompanionID:     req.CompanionID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		CategoryID:      req.CategoryID,
		CustomService:   req.CustomService,
		SpecialRequests: req.SpecialRequests,
		MeetingType:     req.MeetingType,
		MeetingLocation: req.MeetingLocation,
		Lat:             req.Lat,
		Lon:             req.Lon,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatchStatus(c, c.Param("id"), user.ID, req.Status)
}

// Approve and Reject are companion-side shortcuts over UpdateStatus.
func (h BookingHandler) Approve(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	h.dispatchStatus(c, c.Param("id"), user.ID, "confirmed")
}

func (h BookingHandler) Reject(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	h.dispatchStatus(c, c.Param("id"), user.ID, "cancelled")
}

func (h BookingHandler) dispatchStatus(c *gin.Context, bookingID, actorID, status string) {
	cmd := bookingapp.UpdateStatusCommand{
		BookingID: bookingID,
		ActorID:   actorID,
		Status:    status,
	}
	result, err := commands.Dispatch[bookingapp.UpdateStatusCommand, *bookingapp.UpdateStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListForCompanion serves the companion's inbound bookings.
func (h BookingHandler) ListForCompanion(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListCompanionBookingsQuery{
		CompanionID: user.ID,
		Status:      c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListCompanionBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
