package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
)

// ListNotifications returns the caller's notifications newest first
func (h *Handler) ListNotifications(c echo.Context) error {
	claims, _ := mid.Claims(c)
	views, err := h.Notifications.ListForRecipient(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notifications": views})
}

// UnreadCount returns how many of the caller's notifications are unread
func (h *Handler) UnreadCount(c echo.Context) error {
	claims, _ := mid.Claims(c)
	count, err := h.Notifications.UnreadCount(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": count})
}

// MarkRead acknowledges one notification
func (h *Handler) MarkRead(c echo.Context) error {
	claims, _ := mid.Claims(c)
	already, err := h.Notifications.MarkRead(c.Request().Context(), c.Param("id"), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "alreadyRead": already})
}

// MarkAllRead acknowledges every notification of the caller
func (h *Handler) MarkAllRead(c echo.Context) error {
	claims, _ := mid.Claims(c)
	modified, err := h.Notifications.MarkAllRead(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "modifiedCount": modified})
}

// DeleteNotification deletes one of the caller's notifications
func (h *Handler) DeleteNotification(c echo.Context) error {
	claims, _ := mid.Claims(c)
	if err := h.Notifications.DeleteOwn(c.Request().Context(), c.Param("id"), claims.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ClearRead deletes the caller's acknowledged notifications
func (h *Handler) ClearRead(c echo.Context) error {
	claims, _ := mid.Claims(c)
	deleted, err := h.Notifications.ClearRead(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "deletedCount": deleted})
}

// NotificationAnalytics aggregates read state across the caller's tenant
func (h *Handler) NotificationAnalytics(c echo.Context) error {
	claims, _ := mid.Claims(c)
	stats, err := h.Notifications.TenantAnalytics(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "analytics": stats})
}
