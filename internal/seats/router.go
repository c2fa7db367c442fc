package seats

import (
	"hallbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {

	// SESSION BOOTSTRAP

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", controller.NewSession) // POST /api/v1/sessions
	}

	// PUBLIC SEAT MAP

	seats := rg.Group("/seats")
	{
		seats.GET("", controller.GetSeatMap)           // GET /api/v1/seats
		seats.GET("/stream", controller.StreamSeatMap) // GET /api/v1/seats/stream (SSE)
	}

	// BOOKING FLOW (requires a session token)

	booking := rg.Group("/seats")
	booking.Use(middleware.SessionToken(true))
	{
		booking.POST("/checkout", controller.Checkout)              // POST /api/v1/seats/checkout
		booking.POST("/checkout/cancel", controller.CancelCheckout) // POST /api/v1/seats/checkout/cancel
		booking.POST("/registrations", controller.SubmitRegistration)
		booking.GET("/holds", controller.GetSessionHolds) // GET /api/v1/seats/holds
	}
}
