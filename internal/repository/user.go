package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirpfeed/internal/model"
)

const userColumns = `id, username, full_name, email, password_hash, bio, link,
	profile_image_url, profile_image_key, cover_image_url, cover_image_key, created_at, updated_at`

// Unique constraint names from schema.sql
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) GetSummariesByIDs(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
	if len(ids) == 0 {
		return []model.UserSummary{}, nil
	}

	query := `
		SELECT id, username, full_name, profile_image_url
		FROM users
		WHERE id = ANY($1)
	`
	var users []model.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}

	byID := make(map[int64]model.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]model.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (r *userRepository) ListIDsExcept(ctx context.Context, excludeID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE id <> $1 ORDER BY id`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// Update writes every editable column of u and refreshes u.UpdatedAt. The
// write only lands while the row still carries the u.UpdatedAt it was read
// with; otherwise it fails with ErrProfileModified.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET username = $1, full_name = $2, email = $3, password_hash = $4, bio = $5, link = $6,
		    profile_image_url = $7, profile_image_key = $8, cover_image_url = $9, cover_image_key = $10,
		    updated_at = NOW()
		WHERE id = $11 AND updated_at = $12
		RETURNING updated_at
	`
	err := r.db.GetContext(ctx, &u.UpdatedAt, query,
		u.Username,
		u.FullName,
		u.Email,
		u.PasswordHash,
		u.Bio,
		u.Link,
		u.ProfileImageURL,
		u.ProfileImageKey,
		u.CoverImageURL,
		u.CoverImageKey,
		u.ID,
		u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			exists, existsErr := r.Exists(ctx, u.ID)
			if existsErr != nil {
				return existsErr
			}
			if exists {
				return model.ErrProfileModified
			}
			return model.ErrUserNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			switch pqErr.Constraint {
			case constraintUsername:
				return model.ErrUsernameExists
			case constraintEmail:
				return model.ErrEmailExists
			}
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
