package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chirpfeed/internal/handler"
	"chirpfeed/internal/httputil"
	authmw "chirpfeed/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	FeedHandler         *handler.FeedHandler
	PostHandler         *handler.PostHandler
	EngagementHandler   *handler.EngagementHandler
	UserHandler         *handler.UserHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.FeedHandler.Global)
			r.Post("/", cfg.PostHandler.Create)

			// static segments win over /{id}
			r.Get("/following", cfg.FeedHandler.Following)
			r.Get("/bookmarks", cfg.FeedHandler.Bookmarks)
			r.Get("/user/{username}", cfg.FeedHandler.User)
			r.Get("/likes/{userId}", cfg.FeedHandler.Liked)

			r.Get("/{id}", cfg.FeedHandler.Post)
			r.Delete("/{id}", cfg.PostHandler.Delete)
			r.Post("/{id}/like", cfg.EngagementHandler.Like)
			r.Post("/{id}/retweet", cfg.EngagementHandler.Retweet)
			r.Post("/{id}/comment", cfg.EngagementHandler.Comment)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/suggested", cfg.UserHandler.Suggested)
			r.Get("/profile/{username}", cfg.UserHandler.Profile)
			r.Patch("/update", cfg.UserHandler.Update)
			r.Post("/{id}/follow", cfg.UserHandler.Follow)
			r.Post("/{id}/bookmark", cfg.EngagementHandler.Bookmark)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Delete("/", cfg.NotificationHandler.DeleteAll)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Post("/read", cfg.NotificationHandler.ReadAll)
			r.Post("/{id}/read", cfg.NotificationHandler.ReadOne)
		})
	})

	return r
}
