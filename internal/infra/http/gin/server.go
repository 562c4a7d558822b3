package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"meytle/internal/infra/config"
	"meytle/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	ListForCompanion(c *gin.Context)
}

type AvailabilityHTTP interface {
	SetWeekly(c *gin.Context)
	GetWeekly(c *gin.Context)
	OpenSlots(c *gin.Context)
	Calendar(c *gin.Context)
}

type CompanionHTTP interface {
	Apply(c *gin.Context)
	Get(c *gin.Context)
	Browse(c *gin.Context)
	UpdateProfile(c *gin.Context)
	SetActive(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	ListByCompanion(c *gin.Context)
}

type CatalogHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Deactivate(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Companion      CompanionHTTP
	Reviews        ReviewsHTTP
	Catalog        CatalogHTTP
	Auth           AuthHTTP
	Admin          AdminHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Companion != nil {
		api.POST("/companions/apply", h.Companion.Apply)
		api.GET("/companions", h.Companion.Browse)
		api.GET("/companions/:id", h.Companion.Get)
		api.PUT("/companions/me/profile", h.Companion.UpdateProfile)
		api.PATCH("/companions/me/active", h.Companion.SetActive)
		api.POST("/companions/me/photo", h.Companion.UploadPhoto)
	}
	if h.Availability != nil {
		api.PUT("/companions/:id/availability", h.Availability.SetWeekly)
		api.GET("/companions/:id/availability", h.Availability.GetWeekly)
		api.GET("/companions/:id/open-slots", h.Availability.OpenSlots)
		api.GET("/companions/:id/calendar", h.Availability.Calendar)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.PATCH("/bookings/:id/status", h.Booking.UpdateStatus)
		api.POST("/bookings/:id/approve", h.Booking.Approve)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.GET("/companion/bookings", h.Booking.ListForCompanion)
	}
	if h.Reviews != nil {
		api.POST("/bookings/:id/review", h.Reviews.Submit)
		api.GET("/companions/:id/reviews", h.Reviews.ListByCompanion)
	}
	if h.Catalog != nil {
		api.GET("/categories", h.Catalog.List)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.POST("/users/:id/block", h.Admin.BlockUser)
		adminGroup.POST("/users/:id/unblock", h.Admin.UnblockUser)
		adminGroup.POST("/companions/:id/approve", h.Admin.ApproveCompanion)
		adminGroup.POST("/companions/:id/reject", h.Admin.RejectCompanion)
		adminGroup.GET("/users/:id/audit", h.Admin.AuditTrail)
		if h.Catalog != nil {
			adminGroup.POST("/categories", h.Catalog.Create)
			adminGroup.POST("/categories/:id/deactivate", h.Catalog.Deactivate)
		}
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
