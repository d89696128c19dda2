package routes

import (
	"net/http"
	"time"

	"slotify/handlers"
	"slotify/middleware"
	"slotify/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterCatalogRoutes registers the public offering catalog.
func RegisterCatalogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/catalog")
	{
		api.GET("/services", hb.Catalog.ListServices)
		api.GET("/staff", hb.Catalog.ListStaff)
	}
}

// RegisterAvailabilityRoutes registers day/slot browsing and quoting.
// Browsing is public; the per-slot check runs authenticated because the
// caller identity feeds the client-overlap scan.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.GET("/days", hb.Availability.AvailableDays)
		api.GET("/slots", hb.Availability.Slots)
		api.POST("/check", middleware.IdentityMiddleware(), hb.Availability.CheckSlot)
	}
	r.POST("/api/quote", hb.Availability.Quote)
}

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.IdentityMiddleware())
		bookingGroup.POST("", hb.Booking.Hold)
		bookingGroup.GET("", hb.Booking.List)
		bookingGroup.GET("/:id", hb.Booking.Get)
		bookingGroup.POST("/:id/finalize", hb.Booking.Finalize)
		bookingGroup.POST("/:id/settle", hb.Booking.SettlePayment)
		bookingGroup.POST("/:id/reschedule", hb.Booking.Reschedule)
		bookingGroup.POST("/:id/cancel", hb.Booking.Cancel)
		bookingGroup.POST("/:id/rating", hb.Booking.Rate)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.IdentityMiddleware(), middleware.RequireRole("admin"))
		adminGroup.POST("/services", hb.Admin.CreateService)
		adminGroup.POST("/staff", hb.Admin.CreateStaff)
		adminGroup.GET("/policy", hb.Admin.GetPolicy)
		adminGroup.PUT("/policy", hb.Admin.UpdatePolicy)
		adminGroup.POST("/bookings/:id/done", hb.Admin.MarkDone)
		adminGroup.POST("/bookings/:id/no-show", hb.Admin.MarkNoShow)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      "Hi, I'm Slotify",
			"dependencies": utils.GetHealthStatus(),
		})
	})
}

// RegisterMetricsRoute exposes the Prometheus scrape endpoint.
func RegisterMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.DeadlineMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RateLimitMiddleware())

	RegisterCatalogRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
	RegisterMetricsRoute(r)
}
