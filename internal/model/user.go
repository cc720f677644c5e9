package model

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID              int64     `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	FullName        string    `db:"full_name" json:"full_name"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"` // "-" hides from JSON output
	Bio             *string   `db:"bio" json:"bio"`
	Link            *string   `db:"link" json:"link"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profile_image_url"`
	ProfileImageKey *string   `db:"profile_image_key" json:"-"`
	CoverImageURL   *string   `db:"cover_image_url" json:"cover_image_url"`
	CoverImageKey   *string   `db:"cover_image_key" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection embedded in posts, comments and notifications.
type UserSummary struct {
	ID              int64   `db:"id" json:"id"`
	Username        string  `db:"username" json:"username"`
	FullName        string  `db:"full_name" json:"full_name"`
	ProfileImageURL *string `db:"profile_image_url" json:"profile_image_url"`
}

// Summary projects u onto its public fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		FullName:        u.FullName,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Profile is the response for GET /users/profile/{username}.
type Profile struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	Bio             *string   `json:"bio"`
	Link            *string   `json:"link"`
	ProfileImageURL *string   `json:"profile_image_url"`
	CoverImageURL   *string   `json:"cover_image_url"`
	Followers       []int64   `json:"followers"`
	Following       []int64   `json:"following"`
	IsFollowing     bool      `json:"is_following"`
	CreatedAt       time.Time `json:"created_at"`
	Posts           []Post    `json:"posts"`
}

// UpdateProfileRequest carries the editable profile fields. Empty strings keep
// the stored value. Images arrive separately as multipart parts.
type UpdateProfileRequest struct {
	FullName        string `json:"full_name" validate:"omitempty,max=50"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	Username        string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	Bio             string `json:"bio" validate:"omitempty,max=160"`
	Link            string `json:"link" validate:"omitempty,url,max=200"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,max=72"`

	ProfileImage *ImageUpload `json:"-"`
	CoverImage   *ImageUpload `json:"-"`
}

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 6

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = newError(ErrNotFound, "User not found")

	// ErrUsernameExists is returned when a username is already taken
	ErrUsernameExists = newError(ErrConflict, "Username is already taken")

	// ErrEmailExists is returned when an email is already registered
	ErrEmailExists = newError(ErrConflict, "Email is already in use")

	// ErrProfileModified is returned when the row changed after it was read
	ErrProfileModified = newError(ErrConflict, "Profile was modified by another request, please retry")

	ErrPasswordPairRequired = newError(ErrValidation, "Provide both current and new password")
	ErrPasswordIncorrect    = newError(ErrValidation, "Current password is incorrect")
	ErrPasswordTooShort     = newError(ErrValidation, "Password must be at least 6 characters")
)
