package routes

import (
	"net/http"
	"time"

	"barberly/handlers"
	"barberly/middleware"
	"barberly/models"
	"barberly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", middleware.RequireRoles(models.RoleCustomer), hb.CreateBooking)
		api.GET("/:id", hb.GetBooking)
		api.POST("/:id/accept", hb.AcceptBooking)
		api.POST("/:id/reject", hb.RejectBooking)
		api.POST("/:id/reassign", hb.ReassignBooking)
		api.POST("/:id/cancel", hb.CancelBooking)
		api.POST("/:id/start", hb.StartBooking)
		api.POST("/:id/complete", hb.CompleteBooking)
		api.POST("/:id/no-show", hb.MarkNoShow)
		api.POST("/:id/rate", hb.RateBooking)
	}
}

// RegisterCustomerRoutes registers customer-scoped listings.
func RegisterCustomerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/customers")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/:id/bookings", hb.ListCustomerBookings)
	}
}

// RegisterProviderRoutes registers provider availability and schedule endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		// Availability is public.
		api.GET("/:id/slots", hb.ListAvailableSlots)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.GET("/:id/bookings", hb.ListProviderBookings)
		protected.PUT("/:id/schedule", hb.UpdateSchedule)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RequireRoles(models.RoleAdmin))
		adminGroup.POST("/providers", hb.RegisterProvider)
	}
}

// RegisterHealthRoute registers health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Barberly", "backends": utils.GetHealthStatus()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterCustomerRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
