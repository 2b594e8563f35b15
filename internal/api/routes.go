package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/config"
)

// SetupRouter wires the HTTP routes.
func SetupRouter(cfg *config.Config, logger *zap.Logger, handler *Handler) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	if cfg.Server.EnableCORS {
		router.Use(CORSMiddleware())
	}

	router.GET("/health", handler.Health)
	if cfg.Monitoring.Enabled {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		modelRoutes := v1.Group("/models")
		{
			modelRoutes.GET("", handler.ListModels)
			modelRoutes.GET("/status", handler.TrainerStatus)
			modelRoutes.GET("/:id", handler.GetModel)
			modelRoutes.POST("/train", handler.TrainModel)
		}

		predictionRoutes := v1.Group("/predictions")
		{
			predictionRoutes.GET("", handler.ListPredictions)
			predictionRoutes.GET("/:id", handler.GetPrediction)
			predictionRoutes.POST("/predict", handler.Predict)
		}
	}

	return router
}

// RequestLogger logs HTTP requests with structured fields.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// CORSMiddleware handles CORS headers.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
