package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// GetSummariesByIDs returns summaries in the order of ids, skipping unknown ids
	GetSummariesByIDs(ctx context.Context, ids []int64) ([]model.UserSummary, error)
	// ListIDsExcept returns every user id other than excludeID, ascending
	ListIDsExcept(ctx context.Context, excludeID int64) ([]int64, error)
	Update(ctx context.Context, user *model.User) error
}

type FollowRepository interface {
	// Create adds the edge; false means it already existed
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	// Delete removes the edge; false means there was nothing to remove
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// GetByIDs returns the posts that still exist, newest first
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	Delete(ctx context.Context, tx *sqlx.Tx, postID int64) error

	// Retweets. A retweet is a post row of kind retweet, so the retweet set
	// of a post is derived from these rows rather than stored separately.
	CreateRetweet(ctx context.Context, tx *sqlx.Tx, userID, originalPostID int64) (postID int64, created bool, err error)
	DeleteRetweet(ctx context.Context, tx *sqlx.Tx, userID, originalPostID int64) (postID int64, deleted bool, err error)
	GetRetweeterIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error)

	// Feed queries, all newest first unless stated otherwise
	ListAll(ctx context.Context) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error)
	ListByFollower(ctx context.Context, followerID int64) ([]model.Post, error)
	// ListLikedBy orders by like time, most recent like first
	ListLikedBy(ctx context.Context, userID int64) ([]model.Post, error)
	// ListBookmarkedBy orders by bookmark time, most recent first
	ListBookmarkedBy(ctx context.Context, userID int64) ([]model.Post, error)

	// Feed cache support
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostScores(ctx context.Context, followerID int64, limit int) ([]cache.PostScore, error)
}

type EngagementRepository interface {
	// Like set. The user's liked posts and the post's likers are two views of
	// the same post_likes rows.
	AddLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	RemoveLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	GetLikerIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error)

	AddBookmark(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error)
	RemoveBookmark(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error)
	GetBookmarkIDs(ctx context.Context, userID int64) ([]int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, postID, userID int64, text string) (*model.Comment, error)
	// GetByPostIDs returns comments grouped by post, oldest first
	GetByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error
	// ListForUser returns the user's notifications with sender info, newest first
	ListForUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}
