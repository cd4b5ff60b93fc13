package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/service"
	"github.com/read-it-later/internal/view"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// HealthChecker reports whether the record store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. m and health may be nil.
func NewRouter(services *service.Services, renderer *view.Renderer, m *metrics.Metrics, health HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware(m))
	router.Use(corsMiddleware())

	// Handlers
	articleHandler := NewArticleHandler(services, renderer, cfg, log)
	collectHandler := NewCollectHandler(services, renderer, cfg, log)

	// Operational endpoints
	router.GET("/health", healthCheck(health))
	router.GET("/stats", statsHandler(services, log))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Pages
	router.GET("/", articleHandler.Unread)
	router.GET("/archived", articleHandler.Archived)

	// Bookmarklet save
	router.GET("/extract", articleHandler.Extract)

	// Record actions
	router.POST("/archive/:id", articleHandler.Archive)
	router.POST("/unarchive/:id", articleHandler.Unarchive)
	router.POST("/delete/:id", articleHandler.Delete)
	router.POST("/ai-collect", collectHandler.Collect)

	// Legacy action routes kept for old bookmarks and pages
	legacy := router.Group("")
	{
		legacy.POST("/archive-action/:id", articleHandler.Archive)
		legacy.POST("/unarchive-action/:id", articleHandler.Unarchive)
		legacy.POST("/delete-action/:id", articleHandler.Delete)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()

			if err := health.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"error":     err.Error(),
					"timestamp": time.Now().Format(time.RFC3339),
					"service":   "read-it-later",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "read-it-later",
		})
	}
}

// statsHandler returns record counts per tab
func statsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := services.Articles.Stats(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to count articles")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count articles"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"articles":  stats,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates a valid X-Request-ID or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString("request_id")).
			Msg("Request completed")
	}
}

// metricsMiddleware records request count and latency per route template
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// corsMiddleware lets bookmarklets on other origins call /extract
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
