package model

import (
	"time"
)

type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FollowResult is returned by the follow toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

var (
	ErrCannotFollowSelf = newError(ErrValidation, "You can't follow/unfollow yourself")
)
