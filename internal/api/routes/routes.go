package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"letraz-jobboard/internal/api/handlers"
	"letraz-jobboard/internal/api/middleware"
	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc handlers.Service, checks map[string]handlers.Check, logger logging.Logger) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORSConfig(nil))
	if cfg.Server.RequestTimeout > 0 {
		e.Use(middleware.TimeoutConfig(cfg.Server.RequestTimeout))
	}

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(checks))
	}

	v1 := e.Group("/api/v1")
	{
		v1.POST("/extract", handlers.ExtractHandler(svc))

		careers := v1.Group("/career-pages")
		{
			careers.POST("/extract", handlers.CareerPageHandler(svc))
			careers.POST("/classify", handlers.ClassifyHandler(svc))
		}

		v1.POST("/urls/validate", handlers.ValidateURLHandler(svc))

		v1.GET("/platforms", handlers.PlatformsHandler(svc))
		v1.GET("/platforms/stats", handlers.PlatformStatsHandler(svc))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Letraz Job Board Extraction",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
