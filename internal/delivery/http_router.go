package delivery

import (
	"time"

	"surgly/internal/delivery/middleware"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	timeout        time.Duration
	allowedOrigins []string
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer, timeout time.Duration, allowedOrigins []string) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		gatherer:       gatherer,
		timeout:        timeout,
		allowedOrigins: allowedOrigins,
	}
}

func (r *HTTPRouter) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	if len(r.allowedOrigins) == 0 || (len(r.allowedOrigins) == 1 && r.allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = r.allowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}
	return config
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.timeout))
	router.Use(cors.New(r.corsConfig()))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		v1.POST("/diagnose", r.handlers.Diagnose)

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("/:id/diagnosis", r.handlers.DiagnoseCampaign)
			campaigns.POST("/diagnose", r.handlers.DiagnoseCampaigns)
		}

		diagnoses := v1.Group("/diagnoses")
		{
			diagnoses.GET("", r.handlers.ListDiagnoses)
			diagnoses.GET("/:id", r.handlers.GetDiagnosis)
		}

		landing := v1.Group("/landing-page")
		{
			landing.POST("/extract", r.handlers.ExtractLandingPage)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
