package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"golang-physiobackend/middleware"
	"golang-physiobackend/services"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Services    *services.Services
	Health      HealthChecker
	Log         *zap.Logger
	CORSOrigins []string
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config
}

func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(opts.Log),
		middleware.Recovery(opts.Log),
		cors.New(corsConfig(opts.CORSOrigins)),
	)

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := opts.Health.Ping(ctx); err != nil {
			opts.Log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	AuthRoutes(router.Group("/auth"), opts.Services)
	PaymentRoutes(router.Group("/payments"), opts.Services)

	patientRoutes := router.Group("/paciente")
	patientRoutes.Use(middleware.Authentication(opts.Services.Auth))
	{
		PatientRoutes(patientRoutes, opts.Services)
		ExerciseRoutes(patientRoutes, opts.Services)
	}

	return router
}
