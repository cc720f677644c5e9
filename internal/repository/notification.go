package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification inside the caller's transaction.
func (r *notificationRepository) Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	query := `
		INSERT INTO notifications (from_user_id, to_user_id, type, post_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	err := tx.QueryRowxContext(ctx, query, n.FromUserID, n.ToUserID, n.Type, n.PostID).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's notifications joined with the sender.
func (r *notificationRepository) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	query := `
		SELECT n.id, n.from_user_id, n.to_user_id, n.type, n.post_id, n.is_read, n.created_at,
		       u.id as "from.id", u.username as "from.username",
		       u.full_name as "from.full_name", u.profile_image_url as "from.profile_image_url"
		FROM notifications n
		JOIN users u ON u.id = n.from_user_id
		WHERE n.to_user_id = $1
		ORDER BY n.created_at DESC, n.id DESC
	`

	type notifRow struct {
		ID           int64     `db:"id"`
		FromUserID   int64     `db:"from_user_id"`
		ToUserID     int64     `db:"to_user_id"`
		Type         string    `db:"type"`
		PostID       *int64    `db:"post_id"`
		IsRead       bool      `db:"is_read"`
		CreatedAt    time.Time `db:"created_at"`
		FromID       int64     `db:"from.id"`
		FromUsername string    `db:"from.username"`
		FromFullName string    `db:"from.full_name"`
		FromImageURL *string   `db:"from.profile_image_url"`
	}

	var rows []notifRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = model.Notification{
			ID:         row.ID,
			FromUserID: row.FromUserID,
			ToUserID:   row.ToUserID,
			Type:       row.Type,
			PostID:     row.PostID,
			IsRead:     row.IsRead,
			CreatedAt:  row.CreatedAt,
			From: model.UserSummary{
				ID:              row.FromID,
				Username:        row.FromUsername,
				FullName:        row.FromFullName,
				ProfileImageURL: row.FromImageURL,
			},
		}
	}
	return notifications, nil
}

// MarkAsRead marks one of the user's notifications as read.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND to_user_id = $2`
	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}
	ok, err := changed(result)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks all notifications for a user as read.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE to_user_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all as read: %w", err)
	}
	return nil
}

// DeleteAll removes every notification addressed to the user.
func (r *notificationRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE to_user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

// GetUnreadCount returns the count of unread notifications.
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE to_user_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}
