// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"hallbook/internal/admin"
	"hallbook/internal/seats"
	"hallbook/internal/shared/config"
	"hallbook/internal/shared/database"
	"hallbook/pkg/cache"
	"hallbook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	store     seats.Store
	engine    *seats.Engine
	publisher seats.LifecyclePublisher
	reviewPub admin.ReviewPublisher
	log       *logger.Logger
	watchdog  *seats.Watchdog
}

// NewRouter creates a new router instance. The seat store and engine are
// built by the caller so the watchdog and event publishers share them.
func NewRouter(cfg *config.Config, db *database.DB, store seats.Store, engine *seats.Engine,
	publisher seats.LifecyclePublisher, reviewPub admin.ReviewPublisher,
	watchdog *seats.Watchdog, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		store:     store,
		engine:    engine,
		publisher: publisher,
		reviewPub: reviewPub,
		watchdog:  watchdog,
		log:       log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupSeatRoutes(api)
		r.setupAdminRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "hallbook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "hallbook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		}
		if r.watchdog != nil {
			status["expiry_watchdog"] = r.watchdog.Status()
		}
		c.JSON(http.StatusOK, status)
	})
}

// setupSeatRoutes configures the public booking flow routes
func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	seatService := seats.NewService(r.engine, r.store, r.config.Hall, r.publisher, r.log)
	seatController := seats.NewController(seatService)

	seats.SetupSeatRoutes(rg, seatController)
}

// setupAdminRoutes configures review and reporting routes
func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	var cacheService cache.Service
	if rdb := r.db.GetRedisClient(); rdb != nil {
		cacheService = cache.NewService(rdb)
	}

	adminService := admin.NewService(r.engine, r.store, r.config, cacheService, r.reviewPub, r.log)
	adminController := admin.NewController(adminService)

	admin.SetupAdminRoutes(rg, adminController, r.config)
}
