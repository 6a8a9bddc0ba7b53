package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/dgtt-autoecole/api-backend/docs"
	"github.com/dgtt-autoecole/api-backend/internal/handlers"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/middleware"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/services"
	"github.com/dgtt-autoecole/api-backend/internal/templates"
)

// RouterDeps holds everything the HTTP routes need
type RouterDeps struct {
	DB       *gorm.DB
	Sessions *services.SessionService
	Counters *services.CounterService
	Metrics  *metrics.Registry

	Cookie           middleware.CookieConfig
	CounterRateLimit float64
	StartedAt        time.Time
}

// NewRouter registers all routes on a new gin engine.
// Health routes stay outside the session middleware so a storage outage never affects them.
func NewRouter(deps *RouterDeps) (*gin.Engine, error) {
	renderer, err := templates.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Observability(deps.Metrics))
	router.SetHTMLTemplate(renderer.HTML())

	// Liveness, readiness and tooling
	router.GET("/health", handlers.HealthHandler)
	router.GET("/api/health", handlers.HealthHandler)
	router.GET("/ready", handlers.NewReadinessHandler(deps.DB, deps.Counters, deps.StartedAt).Ready)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewSessionRateLimiter(deps.CounterRateLimit, deps.Sessions.Lifetime())
	rateLimit := middleware.RateLimit(limiter, deps.Metrics)

	welcomeHandler := handlers.NewWelcomeHandler(deps.Counters)
	counterHandler := handlers.NewCounterHandler(deps.Counters)

	// Session-bound routes
	session := router.Group("/")
	session.Use(middleware.SessionMiddleware(deps.Sessions, deps.Cookie))
	{
		session.GET("/", welcomeHandler.Show)
		session.POST("/counter/increment", rateLimit, welcomeHandler.Increment)
	}

	api := router.Group("/api")
	api.Use(middleware.SessionMiddleware(deps.Sessions, deps.Cookie))
	{
		api.GET("/counter", counterHandler.GetCounter)
		api.POST("/counter/increment", rateLimit, counterHandler.IncrementCounter)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: "No route for " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	return router, nil
}
