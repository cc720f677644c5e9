package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"chirpfeed/internal/httputil"
	"chirpfeed/internal/model"
)

// Graph is the follow graph as seen by the caller.
type Graph interface {
	FollowUnfollow(ctx context.Context, requesterID, targetID int64) (*model.FollowResult, error)
	SuggestUsers(ctx context.Context, requesterID int64) ([]model.UserSummary, error)
}

// Profiles reads and edits user profiles.
type Profiles interface {
	GetProfile(ctx context.Context, viewerID int64, username string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
}

type UserHandler struct {
	graph    Graph
	profiles Profiles
	Validate *validator.Validate
}

func NewUserHandler(graph Graph, profiles Profiles) *UserHandler {
	return &UserHandler{
		graph:    graph,
		profiles: profiles,
		Validate: NewValidator(),
	}
}

// Follow handles POST /users/{id}/follow
// Follows the target, or unfollows when already following.
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id", "user ID")
	if !ok {
		return
	}

	res, err := h.graph.FollowUnfollow(r.Context(), userID, targetID)
	if err != nil {
		httputil.WriteServiceError(w, "FollowUnfollow handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Suggested handles GET /users/suggested
func (h *UserHandler) Suggested(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.graph.SuggestUsers(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, "SuggestUsers handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Profile handles GET /users/profile/{username}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), viewerID, username)
	if err != nil {
		httputil.WriteServiceError(w, "GetProfile handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Update handles PATCH /users/update
// Accepts JSON, or a multipart form whose text fields mirror the JSON keys
// plus optional "profile_image" and "cover_image" parts.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if isMultipart(r) {
		form, ok := parseMultipart(w, r)
		if !ok {
			return
		}
		defer form.Close()

		req = model.UpdateProfileRequest{
			FullName:        form.Value("full_name"),
			Email:           form.Value("email"),
			Username:        form.Value("username"),
			Bio:             form.Value("bio"),
			Link:            form.Value("link"),
			CurrentPassword: form.Value("current_password"),
			NewPassword:     form.Value("new_password"),
		}
		var err error
		if req.ProfileImage, err = form.Image("profile_image"); err != nil {
			httputil.WriteBadRequest(w, "Invalid profile image upload")
			return
		}
		if req.CoverImage, err = form.Image("cover_image"); err != nil {
			httputil.WriteBadRequest(w, "Invalid cover image upload")
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, "UpdateProfile handler", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
