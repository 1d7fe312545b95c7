package api

import (
	"github.com/Conceptual-Machines/bidrohi/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/bidrohi/internal/api/middleware"
	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/Conceptual-Machines/bidrohi/internal/session"
	webhandlers "github.com/Conceptual-Machines/bidrohi/internal/web/handlers"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies is everything the router wires into handlers
type Dependencies struct {
	Config      *config.Config
	Presenter   *presenter.Presenter
	Sessions    *session.Store
	CookieStore sessions.Store
	Recorder    metrics.Recorder
	Registry    *prometheus.Registry
	Provider    string
	Model       string
	Version     string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Provider, deps.Model, deps.Sessions.Len)
	router.GET("/health", healthHandler.HealthCheck)

	// Runtime metrics
	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Provider, deps.Model, deps.Presenter.Interval())
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Prometheus exposition
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Registry)))
	}

	sessionMiddleware := apimiddleware.Sessions(deps.CookieStore)

	// Web page
	webHandler := webhandlers.NewWebHandler(deps.Config, deps.Sessions)
	router.GET("/", sessionMiddleware, webHandler.Home)

	v1 := router.Group("/api/v1")
	v1.Use(sessionMiddleware)
	{
		poemHandler := handlers.NewPoemHandler(deps.Presenter, deps.Sessions, deps.Config.GenerationTimeout)
		v1.POST("/poems", poemHandler.Create)
		v1.POST("/poems/stream", poemHandler.Stream)
		v1.GET("/poems/current", poemHandler.Current)
	}

	return router
}
