package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	reviewsapp "meytle/internal/app/handlers/reviews"
	"meytle/internal/app/queries"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviews: commands unavailable"})
		return
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id is required"})
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := reviewsapp.SubmitReviewCommand{
		BookingID:  bookingID,
		ReviewerID: user.ID,
		Rating:     req.Rating,
		Text:       req.Text,
		Now:        time.Now().UTC(),
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) ListByCompanion(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviews: queries unavailable"})
		return
	}
	companionID := c.Param("id")
	if companionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companion id is required"})
		return
	}
	query := reviewsapp.ListCompanionReviewsQuery{
		CompanionID: companionID,
		Limit:       parsePositiveInt(c.Query("limit"), 20),
		Offset:      parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.ListCompanionReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewsHTTP = ReviewsHandler{}
