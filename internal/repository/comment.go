package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirpfeed/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create appends a comment to a post.
func (r *commentRepository) Create(ctx context.Context, postID, userID int64, text string) (*model.Comment, error) {
	query := `
		INSERT INTO comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, text, created_at
	`
	var c model.Comment
	err := r.db.QueryRowxContext(ctx, query, postID, userID, text).Scan(
		&c.ID,
		&c.PostID,
		&c.UserID,
		&c.Text,
		&c.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &c, nil
}

// GetByPostIDs fetches comments with author info for many posts in one query.
func (r *commentRepository) GetByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	result := make(map[int64][]model.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at,
		       u.id AS "author.id", u.username AS "author.username",
		       u.full_name AS "author.full_name", u.profile_image_url AS "author.profile_image_url"
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at, c.id
	`

	type commentRow struct {
		ID             int64     `db:"id"`
		PostID         int64     `db:"post_id"`
		UserID         int64     `db:"user_id"`
		Text           string    `db:"text"`
		CreatedAt      time.Time `db:"created_at"`
		AuthorID       int64     `db:"author.id"`
		AuthorUsername string    `db:"author.username"`
		AuthorFullName string    `db:"author.full_name"`
		AuthorImageURL *string   `db:"author.profile_image_url"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], model.Comment{
			ID:        row.ID,
			PostID:    row.PostID,
			UserID:    row.UserID,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
			Author: model.UserSummary{
				ID:              row.AuthorID,
				Username:        row.AuthorUsername,
				FullName:        row.AuthorFullName,
				ProfileImageURL: row.AuthorImageURL,
			},
		})
	}
	return result, nil
}
