// Package http assembles the query surface: route tree, middleware and the
// server lifecycle.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/prometheus"
	"github.com/patentbase-io/patentbase/internal/interfaces/http/handlers"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// complete route tree.
type RouterConfig struct {
	StatusHandler *handlers.StatusHandler
	ImportHandler *handlers.ImportHandler
	QueryHandler  *handlers.QueryHandler
	FamilyHandler *handlers.FamilyHandler
	HealthHandler *handlers.HealthHandler

	Metrics *prometheus.Metrics
	Logger  logging.Logger
	Mode    string
}

// NewRouter builds the gin engine with the full route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	engine.Use(recoveryMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		engine.Use(metricsMiddleware(cfg.Metrics))
	}
	// Raw %2F and friends inside the catch-all segments must survive routing.
	engine.UseRawPath = true
	engine.UnescapePathValues = false

	engine.GET("/status", cfg.StatusHandler.Get)
	engine.POST("/import", cfg.ImportHandler.Post)
	engine.POST("/query", cfg.QueryHandler.Post)
	engine.GET("/query/*nl", cfg.QueryHandler.Get)
	engine.GET("/family/*number", cfg.FamilyHandler.Get)

	engine.GET("/healthz", cfg.HealthHandler.Live)
	engine.GET("/readyz", cfg.HealthHandler.Ready)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return engine
}

// recoveryMiddleware is the only source of 5xx on this surface: domain
// failures are HTTP 200 bodies, panics are 500.
func recoveryMiddleware(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic in request handler",
			logging.String("path", c.Request.URL.Path),
			logging.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal",
		})
	})
}

func metricsMiddleware(metrics *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
