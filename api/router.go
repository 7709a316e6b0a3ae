package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"vidtrack/config"
	"vidtrack/logger"
)

func SetupRouter(tracker Tracker, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	h := NewHandler(tracker, cfg)

	r.GET("/health", h.handleHealth)

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg))
	{
		v1.POST("/jobs", h.handleSubmit)
		v1.GET("/jobs/current", h.handleCurrent)
		v1.DELETE("/jobs/current", h.handleStop)

		// Snapshot stream for browsers (EventSource) and other listeners.
		v1.GET("/events", h.handleEvents)
	}
	return r
}

// RequestLogger logs one line per request through the zap logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Named("api").Infow("Request",
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.FullPath(),
			logger.FieldStatusCode, c.Writer.Status(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
}
