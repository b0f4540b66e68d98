package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"go.uber.org/zap"
)

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	if h.Store != nil {
		if err := h.Store.Ping(c.Request().Context()); err != nil {
			logger.FromEcho(c).Error("Store ping failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"success": false,
				"status":  "unhealthy",
				"service": h.ServiceName,
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"status":  "healthy",
		"service": h.ServiceName,
	})
}
