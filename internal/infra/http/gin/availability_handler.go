package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	availabilityapp "meytle/internal/app/handlers/availability"
	"meytle/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type weeklySlotRequest struct {
	DayOfWeek string   `json:"day_of_week"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Active    *bool    `json:"active"`
	Services  []string `json:"services"`
}

type setWeeklyRequest struct {
	Slots []weeklySlotRequest `json:"slots"`
}

func (h AvailabilityHandler) SetWeekly(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	companionID := c.Param("id")
	if companionID != user.ID && !user.HasRole("admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot edit another companion's schedule"})
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req setWeeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slots := make([]availabilityapp.SlotInput, 0, len(req.Slots))
	for _, slot := range req.Slots {
		slots = append(slots, availabilityapp.SlotInput{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Active:    slot.Active,
			Services:  slot.Services,
		})
	}
	cmd := availabilityapp.SetWeeklyCommand{
		CompanionID: companionID,
		Slots:       slots,
		Origin:      c.ClientIP(),
	}
	result, err := commands.Dispatch[availabilityapp.SetWeeklyCommand, *availabilityapp.SetWeeklyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) GetWeekly(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.GetWeeklyQuery{CompanionID: c.Param("id")}
	// The owner's edit view (and admins) see disabled slots too.
	if p, ok := currentPrincipal(c); ok && (p.ID == query.CompanionID || p.HasRole("admin")) {
		query.IncludeInactive = true
	}
	result, err := queries.Ask[availabilityapp.GetWeeklyQuery, dto.WeeklySchedule](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) OpenSlots(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.OpenSlotsQuery{
		CompanionID: c.Param("id"),
		Date:        c.Query("date"),
	}
	result, err := queries.Ask[availabilityapp.OpenSlotsQuery, dto.DayAvailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.CalendarQuery{
		CompanionID: c.Param("id"),
		From:        c.Query("from"),
		To:          c.Query("to"),
	}
	result, err := queries.Ask[availabilityapp.CalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
