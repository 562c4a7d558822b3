package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	companionapp "meytle/internal/app/handlers/companion"
	userapp "meytle/internal/app/handlers/user"
	domainaudit "meytle/internal/domain/audit"
	domainuser "meytle/internal/domain/user"
)

type AdminHTTP interface {
	ListUsers(c *gin.Context)
	BlockUser(c *gin.Context)
	UnblockUser(c *gin.Context)
	ApproveCompanion(c *gin.Context)
	RejectCompanion(c *gin.Context)
	AuditTrail(c *gin.Context)
}

type AdminHandler struct {
	Users    domainuser.Repository
	Audit    domainaudit.Repository
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	principal, ok := requireRole(c, "admin")
	if !ok || principal.ID == "" {
		return
	}
	if h.Users == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "user repository unavailable"})
		return
	}

	users, total, err := h.Users.List(c.Request.Context(), domainuser.ListParams{
		Query:  c.Query("query"),
		Limit:  parsePositiveInt(c.Query("limit"), 50),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("list users failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list users"})
		return
	}

	resp := dto.UserList{
		Items: make([]dto.UserProfile, 0, len(users)),
		Total: total,
	}
	for _, user := range users {
		resp.Items = append(resp.Items, dto.MapUserProfile(user))
	}
	c.JSON(http.StatusOK, resp)
}

func (h AdminHandler) BlockUser(c *gin.Context) {
	h.setUserBlocked(c, true)
}

func (h AdminHandler) UnblockUser(c *gin.Context) {
	h.setUserBlocked(c, false)
}

func (h AdminHandler) setUserBlocked(c *gin.Context, blocked bool) {
	principal, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := userapp.SetBlockedCommand{
		UserID:  c.Param("id"),
		ActorID: principal.ID,
		Blocked: blocked,
		Origin:  "admin",
	}
	profile, err := commands.Dispatch[userapp.SetBlockedCommand, dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h AdminHandler) ApproveCompanion(c *gin.Context) {
	h.decideCompanion(c, true)
}

func (h AdminHandler) RejectCompanion(c *gin.Context) {
	h.decideCompanion(c, false)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h AdminHandler) decideCompanion(c *gin.Context, approve bool) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := companionapp.DecideApplicationCommand{
		CompanionID: c.Param("id"),
		Approve:     approve,
	}
	if !approve {
		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			cmd.Reason = req.Reason
		}
	}
	profile, err := commands.Dispatch[companionapp.DecideApplicationCommand, dto.CompanionProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h AdminHandler) AuditTrail(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit unavailable"})
		return
	}
	records, err := h.Audit.ListBySubject(c.Request.Context(), domainuser.ID(c.Param("id")), parsePositiveInt(c.Query("limit"), 50))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("audit trail lookup failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list audit records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

var _ AdminHTTP = AdminHandler{}
