package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"chirpfeed/internal/httputil"
	"chirpfeed/internal/model"
)

// Engagement toggles the caller's reactions to a post.
type Engagement interface {
	ToggleLike(ctx context.Context, userID, postID int64) (*model.LikeResult, error)
	ToggleRetweet(ctx context.Context, userID, postID int64) (*model.RetweetResult, error)
	ToggleBookmark(ctx context.Context, userID, postID int64) (*model.BookmarkResult, error)
	AddComment(ctx context.Context, userID, postID int64, text string) (*model.Post, error)
}

type EngagementHandler struct {
	engagement Engagement
	Validate   *validator.Validate
}

func NewEngagementHandler(engagement Engagement) *EngagementHandler {
	return &EngagementHandler{
		engagement: engagement,
		Validate:   NewValidator(),
	}
}

// Like handles POST /posts/{id}/like
func (h *EngagementHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	res, err := h.engagement.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		httputil.WriteServiceError(w, "ToggleLike handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Retweet handles POST /posts/{id}/retweet
func (h *EngagementHandler) Retweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	res, err := h.engagement.ToggleRetweet(r.Context(), userID, postID)
	if err != nil {
		httputil.WriteServiceError(w, "ToggleRetweet handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Bookmark handles POST /users/{id}/bookmark, where id is the post.
func (h *EngagementHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	res, err := h.engagement.ToggleBookmark(r.Context(), userID, postID)
	if err != nil {
		httputil.WriteServiceError(w, "ToggleBookmark handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Comment handles POST /posts/{id}/comment
// Responds with the commented post in feed shape.
func (h *EngagementHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	post, err := h.engagement.AddComment(r.Context(), userID, postID, req.Text)
	if err != nil {
		httputil.WriteServiceError(w, "AddComment handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}
