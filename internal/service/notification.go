package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/model"
	"chirpfeed/internal/repository"
)

// NotificationService persists in-app notifications. Clients poll for them;
// there is no push delivery.
type NotificationService struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationService(notifRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// Emit records an unread notification inside tx, so it commits or rolls back
// with the engagement that caused it. Self-engagement is a no-op and reports
// false.
func (s *NotificationService) Emit(ctx context.Context, tx *sqlx.Tx, fromID, toID int64, notifType string, postID *int64) (bool, error) {
	if fromID == toID {
		return false, nil
	}

	n := &model.Notification{
		FromUserID: fromID,
		ToUserID:   toID,
		Type:       notifType,
		PostID:     postID,
	}
	if err := s.notifRepo.Create(ctx, tx, n); err != nil {
		return false, err
	}

	log.Printf("[NotificationService] %s from=%d to=%d", notifType, fromID, toID)
	return true, nil
}

// List returns the user's notifications with sender summaries, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	notifications, err := s.notifRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifRepo.GetUnreadCount(ctx, userID)
}

// MarkRead marks one of the user's notifications read. Another user's
// notification id is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.notifRepo.MarkAsRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	return s.notifRepo.DeleteAll(ctx, userID)
}
