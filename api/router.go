package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/txpolicies/middleware"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// NewRouter wires the admin routes. provider may be nil, in which case
// /metrics is not registered.
func NewRouter(table PolicyTable, provider MetricsProvider, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	handler := NewHandler(table, logger)

	// Text admin interface
	router.GET("/policies", handler.GetPolicies)
	router.POST("/insert", handler.Insert)
	router.POST("/remove", handler.Remove)

	v1 := router.Group("/api/v1")
	{
		policies := v1.Group("/policies")
		{
			policies.GET("", handler.ListPolicies)
			policies.GET("/:addr", handler.GetPolicy)
			policies.GET("/:addr/supported", handler.GetSupported)
			policies.PUT("/:addr", handler.PutPolicy)
			policies.DELETE("/:addr", handler.DeletePolicy)
		}
		v1.PUT("/default", handler.PutDefault)
	}

	if provider != nil {
		router.GET("/metrics", NewMetricsHandler(provider).GetMetrics)
	}
	router.GET("/health", healthHandler)

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "txpolicies",
		"version": Version,
	})
}
