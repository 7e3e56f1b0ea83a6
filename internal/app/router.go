// internal/app/router.go
package app

import (
	activityHandler "showroom-service/internal/handlers/activity"
	analyticsHandler "showroom-service/internal/handlers/analytics"
	authHandler "showroom-service/internal/handlers/auth"
	customerHandler "showroom-service/internal/handlers/customer"
	vehicleHandler "showroom-service/internal/handlers/vehicle"
	wsHandler "showroom-service/internal/handlers/websocket"
	"showroom-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	AuthHandler      *authHandler.AuthHandler
	ActivityHandler  *activityHandler.ActivityHandler
	VehicleHandler   *vehicleHandler.VehicleHandler
	CustomerHandler  *customerHandler.CustomerHandler
	AnalyticsHandler *analyticsHandler.AnalyticsHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware
	LeadLimiter      *middleware.LeadRateLimiter
	Health           gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", h.Health)

	// ==================== Storefront ====================
	catalog := api.Group("/catalog/vehicles")
	{
		catalog.GET("", h.VehicleHandler.ListCatalog)
		catalog.GET("/:id", h.VehicleHandler.GetCatalogVehicle)
	}

	leads := api.Group("")
	leads.Use(h.LeadLimiter.Handler())
	{
		leads.POST("/activities", h.ActivityHandler.Record)
		leads.POST("/catalog/vehicles/:id/view", h.VehicleHandler.RecordView)
		leads.POST("/catalog/vehicles/:id/test-drive", h.VehicleHandler.BookTestDrive)
		leads.POST("/catalog/vehicles/:id/cash-offer", h.VehicleHandler.SubmitCashOffer)
		leads.POST("/catalog/vehicles/:id/credit-simulation", h.VehicleHandler.SimulateCredit)
	}
	api.POST("/cash-offers/validate", h.VehicleHandler.ValidateCashOffer)

	// ==================== Auth ====================
	api.POST("/auth/login", h.LeadLimiter.Handler(), h.AuthHandler.Login)

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		vehicles := admin.Group("/vehicles")
		{
			vehicles.POST("", h.VehicleHandler.CreateVehicle)
			vehicles.GET("", h.VehicleHandler.ListVehicles)
			vehicles.GET("/:id", h.VehicleHandler.GetVehicle)
			vehicles.PUT("/:id", h.VehicleHandler.UpdateVehicle)
			vehicles.POST("/:id/sold", h.VehicleHandler.MarkSold)
			vehicles.GET("/:id/bookings", h.VehicleHandler.ListBookings)
			vehicles.POST("/:id/cash-offers/:offer_id/decision", h.VehicleHandler.DecideCashOffer)
		}

		admin.PATCH("/activities/:id/offer-status", h.ActivityHandler.PatchOfferStatus)

		customers := admin.Group("/customers")
		{
			customers.GET("", h.CustomerHandler.ListCustomers)
			customers.GET("/stats", h.CustomerHandler.GetStats)
			customers.GET("/follow-ups", h.CustomerHandler.FollowUps)
			customers.GET("/:id", h.CustomerHandler.GetCustomer)
			customers.GET("/:id/interactions", h.CustomerHandler.Interactions)
			customers.PUT("/:id/status", h.CustomerHandler.UpdateStatus)
			customers.PUT("/:id/notes", h.CustomerHandler.UpdateNotes)
		}

		analytics := admin.Group("/analytics")
		{
			analytics.GET("/funnel", h.AnalyticsHandler.Funnel)
			analytics.GET("/vehicles", h.AnalyticsHandler.Vehicles)
			analytics.GET("/journey", h.AnalyticsHandler.Journey)
			analytics.GET("/interactions", h.AnalyticsHandler.Interactions)
			analytics.POST("/refresh", h.AnalyticsHandler.Refresh)
		}

		revenue := admin.Group("/revenue")
		{
			revenue.GET("/projection", h.AnalyticsHandler.Revenue)
			revenue.GET("/pipeline", h.AnalyticsHandler.Pipeline)
		}

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	// ==================== WebSocket ====================
	// Browsers cannot set headers on upgrade; the token may come as ?token=.
	api.GET("/ws", h.WSHandler.HandleConnection)
}
