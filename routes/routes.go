package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"groomly/handlers"
)

// RegisterBookingRoutes sets up the customer-facing booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/services", hb.ListServicesHandler)

	api := r.Group("/api/bookings")
	{
		api.POST("", hb.CreateBookingHandler)
		api.GET("/:reference", hb.GetBookingHandler)
		api.POST("/:reference/confirm", hb.ConfirmBookingHandler)
		api.POST("/:reference/cancel", hb.CancelBookingHandler)
		api.POST("/:reference/dispute", hb.DisputeBookingHandler)
	}
}

// RegisterWebhookRoutes sets up the endpoints external systems call in:
// the payment gateway redirect and the messaging provider's inbound
// webhook.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/webhooks")
	{
		api.GET("/payment", hb.PaymentCallbackHandler)
		api.POST("/messages", hb.InboundMessageHandler)
	}
}

// RegisterAdminRoutes sets up back-office endpoints: onboarding,
// settings, manual sweeps, and the stage signal with no text token.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	{
		api.POST("/services", hb.CreateServiceHandler)
		api.POST("/groomers", hb.RegisterGroomerHandler)
		api.POST("/customers", hb.RegisterCustomerHandler)
		api.PUT("/customers/:id/squad", hb.SetSquadHandler)
		api.GET("/settings", hb.GetSettingsHandler)
		api.PUT("/settings", hb.SetSettingHandler)
		api.POST("/sweeps/run", hb.TriggerSweepsHandler)
		api.POST("/groomers/:groomerId/start-service", hb.StartServiceHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
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

	RegisterBookingRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
