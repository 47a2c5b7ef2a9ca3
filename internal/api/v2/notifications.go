package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/datastore"
)

// NotificationResponse is the public view of an in-app notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func notificationResponse(n *datastore.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// ListNotifications handles GET /api/v2/notifications
func (c *Controller) ListNotifications(ctx echo.Context) error {
	session, _ := currentSession(ctx)
	unreadOnly := ctx.QueryParam("unread") == "true"

	items, err := c.DS.ListNotifications(session.UserID, unreadOnly)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list notifications", http.StatusInternalServerError)
	}

	resp := make([]NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, notificationResponse(&items[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// MarkNotificationRead handles POST /api/v2/notifications/:id/read
func (c *Controller) MarkNotificationRead(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid notification id", http.StatusBadRequest)
	}

	if err := c.DS.MarkNotificationRead(uint(id), session.UserID); err != nil {
		return c.HandleError(ctx, err, "Notification not found", mapErrorStatus(err))
	}
	return ctx.NoContent(http.StatusNoContent)
}
