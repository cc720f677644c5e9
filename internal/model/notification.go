package model

import (
	"time"
)

// Notification types
const (
	NotificationTypeFollow   = "follow"
	NotificationTypeLike     = "like"
	NotificationTypeBookmark = "bookmark"
	NotificationTypeComment  = "comment"
)

// Notification represents a single notification record in the database.
type Notification struct {
	ID         int64     `db:"id" json:"id"`
	FromUserID int64     `db:"from_user_id" json:"from_user_id"` // Who triggered it
	ToUserID   int64     `db:"to_user_id" json:"-"`              // Recipient
	Type       string    `db:"type" json:"type"`
	PostID     *int64    `db:"post_id" json:"post_id,omitempty"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// Joined field for display
	From UserSummary `json:"from"`
}

// UnreadCountResponse is the body of GET /notifications/unread-count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

var (
	ErrNotificationNotFound = newError(ErrNotFound, "Notification not found")
)
