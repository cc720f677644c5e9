package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/model"
)

// engagementRepository stores the like and bookmark sets. Each set is one
// table keyed by (post, user), so both directions of a membership change in
// the same statement and can never disagree.
type engagementRepository struct {
	db *sqlx.DB
}

func NewEngagementRepository(db *sqlx.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// AddLike records the like. false means the user had already liked the post.
func (r *engagementRepository) AddLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	return execToggle(ctx, tx, "insert like", query, postID, userID)
}

// RemoveLike deletes the like. false means there was no like to remove.
func (r *engagementRepository) RemoveLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	return execToggle(ctx, tx, "delete like", query, postID, userID)
}

// GetLikerIDs maps each post id to the users who liked it, in like order.
func (r *engagementRepository) GetLikerIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	query := `
		SELECT post_id, user_id
		FROM post_likes
		WHERE post_id = ANY($1)
		ORDER BY created_at, user_id
	`
	return selectMembership(ctx, r.db, "get likers", query, postIDs)
}

func (r *engagementRepository) AddBookmark(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	query := `
		INSERT INTO bookmarks (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	return execToggle(ctx, tx, "insert bookmark", query, userID, postID)
}

func (r *engagementRepository) RemoveBookmark(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	query := `DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`
	return execToggle(ctx, tx, "delete bookmark", query, userID, postID)
}

// GetBookmarkIDs returns the user's bookmarked post ids, oldest bookmark first.
func (r *engagementRepository) GetBookmarkIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	query := `SELECT post_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at, post_id`
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("get bookmarks: %w", err)
	}
	return ids, nil
}

// execToggle runs a conditional insert or delete and reports whether a row changed.
// A foreign key violation means the post disappeared between the existence
// check and the write.
func execToggle(ctx context.Context, tx *sqlx.Tx, op, query string, args ...interface{}) (bool, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, model.ErrPostNotFound
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return changed(result)
}

func changed(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}
