package model

import (
	"encoding/json"
	"time"
)

// PostKind discriminates original posts from retweets.
type PostKind string

const (
	PostKindOriginal PostKind = "original"
	PostKindRetweet  PostKind = "retweet"
)

// Post is a post joined with its author and engagement sets.
//
// For PostKindOriginal, Text or ImageURL is set and OriginalPostID is nil.
// For PostKindRetweet, Text and ImageURL are nil and OriginalPostID is set;
// OriginalPost is nil when the referenced post no longer exists.
type Post struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Kind           PostKind  `db:"kind" json:"kind"`
	Text           *string   `db:"text" json:"text,omitempty"`
	ImageURL       *string   `db:"image_url" json:"image_url,omitempty"`
	ImageKey       *string   `db:"image_key" json:"-"`
	OriginalPostID *int64    `db:"original_post_id" json:"original_post_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// Joined fields (not in posts table)
	Author       UserSummary `json:"user"`
	Likes        []int64     `json:"likes"`
	Retweets     []int64     `json:"retweets"`
	Comments     []Comment   `json:"comments"`
	OriginalPost *Post       `json:"-"`
}

// IsRetweet reports whether p is a retweet.
func (p *Post) IsRetweet() bool {
	return p.Kind == PostKindRetweet
}

// MarshalJSON emits original_post only for retweets, as null when the
// original was deleted.
func (p Post) MarshalJSON() ([]byte, error) {
	type post Post
	if p.Kind != PostKindRetweet {
		return json.Marshal(post(p))
	}
	return json.Marshal(struct {
		post
		OriginalPost *Post `json:"original_post"`
	}{post(p), p.OriginalPost})
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text  string       `json:"text" validate:"max=280"`
	Image *ImageUpload `json:"-"`
}

// LikeResult is returned by the like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
}

// RetweetResult is returned by the retweet toggle.
type RetweetResult struct {
	Retweeted bool `json:"retweeted"`
}

// BookmarkResult is returned by the bookmark toggle.
type BookmarkResult struct {
	Bookmarked bool    `json:"bookmarked"`
	Bookmarks  []int64 `json:"bookmarks"`
}

// Post constraints
const (
	MaxPostTextLength = 280
	PostImageFolder   = "posts"
)

// Post errors
var (
	ErrPostNotFound    = newError(ErrNotFound, "Post not found")
	ErrNotPostOwner    = newError(ErrForbidden, "You are not authorized to delete this post")
	ErrContentRequired = newError(ErrValidation, "Post must have text or image")
	ErrTextTooLong     = newError(ErrValidation, "Post text is too long")
)
