package routes

import (
	"net/http"
	"time"

	"daresni/handlers"
	"daresni/middleware"
	"daresni/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute serves the latest health snapshot.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		if hb.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := hb.Health.Status()
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterMetricsRoute exposes Prometheus metrics.
func RegisterMetricsRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/metrics", gin.WrapH(hb.Metrics.Handler()))
}

// RegisterTutorRoutes registers the public directory and availability reads.
func RegisterTutorRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	tutors := api.Group("/tutors")
	{
		tutors.GET("", hb.Tutors.ListTutorsHandler)
		tutors.GET("/:id", hb.Tutors.GetTutorHandler)
		tutors.GET("/:id/quote", hb.Tutors.QuoteHandler)
		tutors.GET("/:id/availability", hb.Availability.GetAvailabilityHandler)
		tutors.GET("/:id/availability/window", hb.Availability.GetWindowHandler)
	}
	api.GET("/availability/earliest", hb.Availability.EarliestHandler)
}

// RegisterAvailabilityRoutes lets tutors edit their own slots.
func RegisterAvailabilityRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	me := api.Group("/me/availability")
	{
		me.Use(middleware.RequireRole(hb.Logger, models.RoleTutor))
		me.PUT("/:date", hb.Availability.SetMyAvailabilityHandler)
		me.POST("/:date/slots", hb.Availability.AddMySlotHandler)
		me.DELETE("/:date/slots/:time", hb.Availability.RemoveMySlotHandler)
	}
}

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	tutorOnly := middleware.RequireRole(hb.Logger, models.RoleTutor)
	bookings := api.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(hb.Logger, models.RoleStudent), hb.Bookings.CreateBookingHandler)
		bookings.GET("/:id", hb.Bookings.GetBookingHandler)
		bookings.POST("/:id/approve", tutorOnly, hb.Bookings.ApproveBookingHandler)
		bookings.POST("/:id/reject", tutorOnly, hb.Bookings.RejectBookingHandler)
		bookings.POST("/:id/cancel", hb.Bookings.CancelBookingHandler)
		bookings.POST("/:id/complete", hb.Bookings.CompleteBookingHandler)
	}
}

// RegisterSessionRoutes registers the session lists and their live feeds.
func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	tutorOnly := middleware.RequireRole(hb.Logger, models.RoleTutor)
	sessions := api.Group("/sessions")
	{
		sessions.GET("/upcoming", hb.Sessions.UpcomingHandler)
		sessions.GET("/history", hb.Sessions.HistoryHandler)
		sessions.GET("/requests", tutorOnly, hb.Sessions.RequestsHandler)
		sessions.GET("/upcoming/live", hb.Sessions.UpcomingLiveHandler)
		sessions.GET("/history/live", hb.Sessions.HistoryLiveHandler)
		sessions.GET("/requests/live", tutorOnly, hb.Sessions.RequestsLiveHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Dev-Role", "X-Dev-UID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics(hb.Metrics))

	RegisterHealthRoute(r, hb)
	RegisterMetricsRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(hb.RateLimit, hb.Logger))
	api.Use(middleware.Authenticate(hb.Verifier, hb.DevAuthBypass, hb.Logger))

	RegisterTutorRoutes(api, hb)
	RegisterAvailabilityRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterSessionRoutes(api, hb)
}
