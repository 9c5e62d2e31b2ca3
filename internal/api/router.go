package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"order-tracking/internal/api/middleware"
	"order-tracking/internal/models"
	"order-tracking/internal/modules/tracking"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(e *echo.Echo, jwtSecret string, trackingHandler *tracking.Handler) {
	authMiddleware := middleware.JWTMAuth(jwtSecret)
	shipperRequired := middleware.RoleRequired(models.UserRoleShipper)
	staffRequired := middleware.RoleRequired(models.UserRoleShipper, models.UserRoleAdmin)

	// --- Public Routes ---
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Tracking Routes ---
	trackingGroup := e.Group("/tracking", authMiddleware)
	trackingHandler.RegisterRoutes(trackingGroup, shipperRequired, staffRequired)

	e.GET("/ws/tracking", trackingHandler.ServeSocket, authMiddleware)
}
