package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"chirpfeed/internal/httputil"
	"chirpfeed/internal/model"
)

// PostWriter creates and deletes posts.
type PostWriter interface {
	Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, requesterID, postID int64) error
}

type PostHandler struct {
	posts    PostWriter
	Validate *validator.Validate
}

func NewPostHandler(posts PostWriter) *PostHandler {
	return &PostHandler{
		posts:    posts,
		Validate: NewValidator(),
	}
}

// Create handles POST /posts
// Accepts JSON {"text"} or a multipart form with "text" and an optional "image" part.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if isMultipart(r) {
		form, ok := parseMultipart(w, r)
		if !ok {
			return
		}
		defer form.Close()

		image, err := form.Image("image")
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid image upload")
			return
		}
		req.Text = form.Value("text")
		req.Image = image
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, "Create post handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Delete handles DELETE /posts/{id}
// Only the author may delete a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post ID")
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), userID, postID); err != nil {
		httputil.WriteServiceError(w, "Delete post handler", err)
		return
	}

	log.Printf("[PostHandler] deleted post=%d by user=%d", postID, userID)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}
