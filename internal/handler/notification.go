package handler

import (
	"context"
	"net/http"

	"chirpfeed/internal/httputil"
	"chirpfeed/internal/model"
)

type Notifications interface {
	List(ctx context.Context, userID int64) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

type NotificationHandler struct {
	notifications Notifications
}

func NewNotificationHandler(notifications Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /notifications
// Returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "List notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "Unread count", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.UnreadCountResponse{UnreadCount: count})
}

// ReadAll handles POST /notifications/read
func (h *NotificationHandler) ReadAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		httputil.WriteServiceError(w, "Mark all notifications read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as read"})
}

// ReadOne handles POST /notifications/{id}/read
func (h *NotificationHandler) ReadOne(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(w, r, "id", "notification ID")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, notificationID); err != nil {
		httputil.WriteServiceError(w, "Mark notification read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// DeleteAll handles DELETE /notifications
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.notifications.DeleteAll(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "Delete notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
