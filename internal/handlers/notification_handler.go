package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
)

// NotificationHandler handles notification read APIs.
type NotificationHandler struct {
	notifier *engine.Notifier
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier *engine.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PATCH("/notifications/:id/read", h.MarkRead)
	g.POST("/notifications/read-all", h.MarkAllRead)
}

// GetNotifications returns one page of the caller's notifications.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	page, limit := pageParams(c)

	notifications, total, err := h.notifier.List(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return paginatedJSON(c, "notifications", notifications, page, limit, total)
}

// GetUnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notifier.UnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"unread_count": count}})
}

// MarkRead marks one notification read; marking an already-read
// notification succeeds without effect.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notifier.MarkRead(c.Request().Context(), uint(id), currentUserID); err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllRead marks every unread notification of the caller read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notifier.MarkAllRead(c.Request().Context(), currentUserID); err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
