package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chirpfeed/internal/httputil"
	"chirpfeed/internal/model"
)

// FeedReader serves the read-only post views.
type FeedReader interface {
	Global(ctx context.Context) ([]model.Post, error)
	Following(ctx context.Context, userID int64) ([]model.Post, error)
	User(ctx context.Context, username string) ([]model.Post, error)
	Liked(ctx context.Context, userID int64) ([]model.Post, error)
	Bookmarks(ctx context.Context, userID int64) ([]model.Post, error)
	Post(ctx context.Context, postID int64) (*model.Post, error)
}

type FeedHandler struct {
	feed FeedReader
}

func NewFeedHandler(feed FeedReader) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Global handles GET /posts
func (h *FeedHandler) Global(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	posts, err := h.feed.Global(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, "Global feed handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Following handles GET /posts/following
// Posts by the accounts the caller follows, newest first.
func (h *FeedHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.feed.Following(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "Following feed handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// User handles GET /posts/user/{username}
func (h *FeedHandler) User(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}

	posts, err := h.feed.User(r.Context(), username)
	if err != nil {
		httputil.WriteServiceError(w, "User feed handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Liked handles GET /posts/likes/{userId}
func (h *FeedHandler) Liked(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	userID, ok := pathID(w, r, "userId", "user ID")
	if !ok {
		return
	}

	posts, err := h.feed.Liked(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "Liked feed handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Bookmarks handles GET /posts/bookmarks
func (h *FeedHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.feed.Bookmarks(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "Bookmarks feed handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Post handles GET /posts/{id}
func (h *FeedHandler) Post(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	post, err := h.feed.Post(r.Context(), postID)
	if err != nil {
		httputil.WriteServiceError(w, "Get post handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}
