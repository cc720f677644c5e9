package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/model"
)

const postSelect = `
	SELECT p.id, p.user_id, p.kind, p.text, p.image_url, p.image_key, p.original_post_id, p.created_at,
	       u.id AS "author.id", u.username AS "author.username",
	       u.full_name AS "author.full_name", u.profile_image_url AS "author.profile_image_url"
	FROM posts p
	JOIN users u ON u.id = p.user_id`

const newestFirst = ` ORDER BY p.created_at DESC, p.id DESC`

// postRow is a post joined with its author.
type postRow struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	Kind           string    `db:"kind"`
	Text           *string   `db:"text"`
	ImageURL       *string   `db:"image_url"`
	ImageKey       *string   `db:"image_key"`
	OriginalPostID *int64    `db:"original_post_id"`
	CreatedAt      time.Time `db:"created_at"`
	AuthorID       int64     `db:"author.id"`
	AuthorUsername string    `db:"author.username"`
	AuthorFullName string    `db:"author.full_name"`
	AuthorImageURL *string   `db:"author.profile_image_url"`
}

func (row postRow) toModel() model.Post {
	return model.Post{
		ID:             row.ID,
		UserID:         row.UserID,
		Kind:           model.PostKind(row.Kind),
		Text:           row.Text,
		ImageURL:       row.ImageURL,
		ImageKey:       row.ImageKey,
		OriginalPostID: row.OriginalPostID,
		CreatedAt:      row.CreatedAt,
		Author: model.UserSummary{
			ID:              row.AuthorID,
			Username:        row.AuthorUsername,
			FullName:        row.AuthorFullName,
			ProfileImageURL: row.AuthorImageURL,
		},
	}
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts an original post and fills in its id and created_at.
func (r *postRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	query := `
		INSERT INTO posts (user_id, kind, text, image_url, image_key)
		VALUES ($1, 'original', $2, $3, $4)
		RETURNING id, created_at
	`
	row := tx.QueryRowxContext(ctx, query, post.UserID, post.Text, post.ImageURL, post.ImageKey)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	post.Kind = model.PostKindOriginal
	return nil
}

// GetByID retrieves a single post with its author.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, postSelect+` WHERE p.id = $1`, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	post := row.toModel()
	return &post, nil
}

// GetByIDs retrieves multiple posts by their IDs.
// Used for resolving retweet originals and hydrating the feed from cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}
	return r.list(ctx, "get posts by ids", postSelect+` WHERE p.id = ANY($1)`+newestFirst, pq.Array(postIDs))
}

// Delete removes a post. Likes, bookmarks and comments go with it through
// ON DELETE CASCADE; retweets that reference it are left in place.
func (r *postRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// CreateRetweet inserts the user's retweet of originalPostID. created is false
// when the retweet already exists.
func (r *postRepository) CreateRetweet(ctx context.Context, tx *sqlx.Tx, userID, originalPostID int64) (int64, bool, error) {
	query := `
		INSERT INTO posts (user_id, kind, original_post_id)
		VALUES ($1, 'retweet', $2)
		ON CONFLICT (user_id, original_post_id) WHERE kind = 'retweet' DO NOTHING
		RETURNING id
	`
	var id int64
	err := tx.GetContext(ctx, &id, query, userID, originalPostID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert retweet: %w", err)
	}
	return id, true, nil
}

// DeleteRetweet removes the user's retweet of originalPostID. deleted is false
// when there was none.
func (r *postRepository) DeleteRetweet(ctx context.Context, tx *sqlx.Tx, userID, originalPostID int64) (int64, bool, error) {
	query := `
		DELETE FROM posts
		WHERE user_id = $1 AND original_post_id = $2 AND kind = 'retweet'
		RETURNING id
	`
	var id int64
	err := tx.GetContext(ctx, &id, query, userID, originalPostID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("delete retweet: %w", err)
	}
	return id, true, nil
}

// GetRetweeterIDs maps each post id to the users who retweeted it, in retweet order.
func (r *postRepository) GetRetweeterIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	query := `
		SELECT original_post_id AS post_id, user_id
		FROM posts
		WHERE kind = 'retweet' AND original_post_id = ANY($1)
		ORDER BY created_at, id
	`
	return selectMembership(ctx, r.db, "get retweeters", query, postIDs)
}

func (r *postRepository) ListAll(ctx context.Context) ([]model.Post, error) {
	return r.list(ctx, "list posts", postSelect+newestFirst)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	return r.list(ctx, "list posts by author", postSelect+` WHERE p.user_id = $1`+newestFirst, authorID)
}

func (r *postRepository) ListByFollower(ctx context.Context, followerID int64) ([]model.Post, error) {
	query := postSelect + `
	JOIN follows f ON f.followee_id = p.user_id
	WHERE f.follower_id = $1` + newestFirst
	return r.list(ctx, "list following posts", query, followerID)
}

func (r *postRepository) ListLikedBy(ctx context.Context, userID int64) ([]model.Post, error) {
	query := postSelect + `
	JOIN post_likes pl ON pl.post_id = p.id
	WHERE pl.user_id = $1
	ORDER BY pl.created_at DESC, p.id DESC`
	return r.list(ctx, "list liked posts", query, userID)
}

func (r *postRepository) ListBookmarkedBy(ctx context.Context, userID int64) ([]model.Post, error) {
	query := postSelect + `
	JOIN bookmarks b ON b.post_id = p.id
	WHERE b.user_id = $1
	ORDER BY b.created_at DESC, p.id DESC`
	return r.list(ctx, "list bookmarked posts", query, userID)
}

func (r *postRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]model.Post, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toModel()
	}
	return posts, nil
}

type scoreRow struct {
	ID        int64 `db:"id"`
	Timestamp int64 `db:"timestamp"`
}

// Feed cache scores are creation times in microseconds, which float64 ZSET
// scores hold exactly.
const scoreExpr = `(EXTRACT(EPOCH FROM p.created_at) * 1000000)::bigint AS timestamp`

// GetRecentPostsByUser returns recent posts by a user (for follow backfill).
func (r *postRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT p.id, ` + scoreExpr + `
		FROM posts p
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
	`
	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	return toScores(rows), nil
}

// GetFeedPostScores returns the newest posts from everyone followerID follows (for cache warming).
func (r *postRepository) GetFeedPostScores(ctx context.Context, followerID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT p.id, ` + scoreExpr + `
		FROM posts p
		JOIN follows f ON f.followee_id = p.user_id
		WHERE f.follower_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
	`
	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, followerID, limit); err != nil {
		return nil, fmt.Errorf("get feed post scores: %w", err)
	}
	return toScores(rows), nil
}

func toScores(rows []scoreRow) []cache.PostScore {
	scores := make([]cache.PostScore, len(rows))
	for i, row := range rows {
		scores[i] = cache.PostScore{PostID: row.ID, Timestamp: row.Timestamp}
	}
	return scores
}

// selectMembership runs a (post_id, user_id) query and groups user ids by post.
func selectMembership(ctx context.Context, db *sqlx.DB, op, query string, postIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	type pair struct {
		PostID int64 `db:"post_id"`
		UserID int64 `db:"user_id"`
	}
	var pairs []pair
	if err := db.SelectContext(ctx, &pairs, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range pairs {
		result[p.PostID] = append(result[p.PostID], p.UserID)
	}
	return result, nil
}
