package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	catalogapp "meytle/internal/app/handlers/catalog"
	"meytle/internal/app/queries"
)

type CatalogHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h CatalogHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	result, err := queries.Ask[catalogapp.ListCategoriesQuery, dto.CategoryCollection](c.Request.Context(), h.Queries, catalogapp.ListCategoriesQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createCategoryRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	BaseHourlyRateCents int64  `json:"base_hourly_rate_cents"`
	Currency            string `json:"currency"`
}

func (h CatalogHandler) Create(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := catalogapp.CreateCategoryCommand{
		Name:                req.Name,
		Description:         req.Description,
		BaseHourlyRateCents: req.BaseHourlyRateCents,
		Currency:            req.Currency,
	}
	category, err := commands.Dispatch[catalogapp.CreateCategoryCommand, dto.Category](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h CatalogHandler) Deactivate(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := catalogapp.DeactivateCategoryCommand{CategoryID: c.Param("id")}
	category, err := commands.Dispatch[catalogapp.DeactivateCategoryCommand, dto.Category](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

var _ CatalogHTTP = CatalogHandler{}
