package model

import (
	"time"
)

// Comment is an entry in a post's append-only comment sequence.
type Comment struct {
	ID        int64       `db:"id" json:"id"`
	PostID    int64       `db:"post_id" json:"-"`
	UserID    int64       `db:"user_id" json:"user_id"`
	Text      string      `db:"text" json:"text"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	Author    UserSummary `json:"user"` // Joined field
}

// CreateCommentRequest is the request body for commenting on a post.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"max=280"`
}

// Comment errors
var (
	ErrCommentRequired = newError(ErrValidation, "Please provide comment text")
	ErrCommentTooLong  = newError(ErrValidation, "Comment text is too long")
)
