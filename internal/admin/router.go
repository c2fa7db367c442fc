package admin

import (
	"hallbook/internal/shared/config"
	"hallbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {

	auth := rg.Group("/admin")
	{
		auth.POST("/login", controller.Login) // POST /api/v1/admin/login
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(middleware.AdminAuthWithConfig(cfg))
	{
		adminRoutes.GET("/seats", controller.ListSeats)                // GET /api/v1/admin/seats?status=&q=
		adminRoutes.POST("/seats/:id/approve", controller.Approve)     // POST /api/v1/admin/seats/:id/approve
		adminRoutes.POST("/seats/:id/decline", controller.Decline)     // POST /api/v1/admin/seats/:id/decline
		adminRoutes.POST("/seats/:id/reset", controller.Reset)         // POST /api/v1/admin/seats/:id/reset
		adminRoutes.GET("/seats/:id/receipt", controller.GetReceipt)   // GET /api/v1/admin/seats/:id/receipt
		adminRoutes.GET("/stats", controller.Stats)                    // GET /api/v1/admin/stats
		adminRoutes.GET("/export", controller.Export)                  // GET /api/v1/admin/export
	}
}
