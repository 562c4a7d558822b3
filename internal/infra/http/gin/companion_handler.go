package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	companionapp "meytle/internal/app/handlers/companion"
	"meytle/internal/app/queries"
	"meytle/internal/infra/storage/s3"
)

const maxPhotoSizeBytes = 8 << 20

type CompanionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
	Logger   *slog.Logger
}

type applyRequest struct {
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	City        string   `json:"city"`
	Services    []string `json:"services"`
	Languages   []string `json:"languages"`
}

func (h CompanionHandler) Apply(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := companionapp.ApplyCommand{
		ApplicantID: user.ID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		City:        req.City,
		Services:    req.Services,
		Languages:   req.Languages,
	}
	profile, err := commands.Dispatch[companionapp.ApplyCommand, dto.CompanionProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h CompanionHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := companionapp.GetCompanionQuery{CompanionID: c.Param("id")}
	if principal, ok := currentPrincipal(c); ok {
		query.ViewerID = principal.ID
		query.ViewerAdmin = principal.HasRole("admin")
	}
	profile, err := queries.Ask[companionapp.GetCompanionQuery, dto.CompanionProfile](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h CompanionHandler) Browse(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := companionapp.BrowseCompanionsQuery{
		Limit:  parsePositiveInt(c.Query("limit"), 20),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	}
	if principal, ok := currentPrincipal(c); ok && principal.HasRole("admin") && c.Query("all") == "true" {
		query.IncludeAll = true
	}
	result, err := queries.Ask[companionapp.BrowseCompanionsQuery, dto.CompanionCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateProfileRequest struct {
	Bio       string   `json:"bio"`
	City      string   `json:"city"`
	Services  []string `json:"services"`
	Languages []string `json:"languages"`
}

func (h CompanionHandler) UpdateProfile(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := companionapp.UpdateProfileCommand{
		CompanionID: user.ID,
		Bio:         req.Bio,
		City:        req.City,
		Services:    req.Services,
		Languages:   req.Languages,
	}
	profile, err := commands.Dispatch[companionapp.UpdateProfileCommand, dto.CompanionProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h CompanionHandler) SetActive(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := companionapp.SetActiveCommand{CompanionID: user.ID, Active: req.Active}
	profile, err := commands.Dispatch[companionapp.SetActiveCommand, dto.CompanionProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h CompanionHandler) UploadPhoto(c *gin.Context) {
	user, ok := requireRole(c, "companion")
	if !ok {
		return
	}
	if h.Commands == nil || h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo upload unavailable"})
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > maxPhotoSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo exceeds the 8 MiB limit"})
		return
	}
	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read photo"})
		return
	}
	defer reader.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("companions/%s/%s%s", user.ID, uuid.NewString(), ext)
	url, err := h.Uploader.Upload(c.Request.Context(), key, reader, file.Header.Get("Content-Type"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("photo upload failed", "companion_id", user.ID, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}

	cmd := companionapp.SetPhotoCommand{CompanionID: user.ID, PhotoURL: url}
	profile, err := commands.Dispatch[companionapp.SetPhotoCommand, dto.CompanionProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

var _ CompanionHTTP = CompanionHandler{}
