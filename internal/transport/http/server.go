package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"time"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/config"
	"chirpfeed/internal/database"
	"chirpfeed/internal/handler"
	"chirpfeed/internal/queue"
	"chirpfeed/internal/redis"
	"chirpfeed/internal/repository"
	"chirpfeed/internal/service"
	"chirpfeed/internal/storage"
	"chirpfeed/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// 3. Object storage
	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	images := storage.NewUploader(objects, cfg.S3PublicURL)

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// 5. Optional Redis: feed cache, event stream and fan-out workers
	var (
		feeds     cache.FeedCache
		publisher queue.Publisher
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		feeds = cache.NewFeedCache(rdb.Client)
		publisher = queue.NewPublisher(rdb.Client)

		hostname, _ := os.Hostname()
		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(feeds, followRepo, postRepo),
			worker.ManagerConfig{WorkerCount: cfg.WorkerCount, ConsumerPrefix: hostname},
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start feed workers: %w", err)
		}
		defer manager.Stop()
		log.Printf("Feed cache enabled with %d workers", cfg.WorkerCount)
	} else {
		log.Println("REDIS_URL not set, following feed is served from Postgres")
	}

	// 6. Services
	notifications := service.NewNotificationService(notifRepo)
	feed := service.NewFeedService(postRepo, engagementRepo, commentRepo, userRepo, feeds)
	posts := service.NewPostService(db, postRepo, images, feed, publisher)
	engagement := service.NewEngagementService(db, postRepo, engagementRepo, commentRepo, notifications, feed, publisher)
	graph := service.NewGraphService(db, userRepo, followRepo, notifications, feeds, publisher, service.SuggestionConfig{
		SampleSize: cfg.SuggestionSampleSize,
		Limit:      cfg.SuggestionLimit,
	})
	users := service.NewUserService(userRepo, followRepo, feed, images)

	// 7. Router
	router := NewRouter(RouterConfig{
		FeedHandler:         handler.NewFeedHandler(feed),
		PostHandler:         handler.NewPostHandler(posts),
		EngagementHandler:   handler.NewEngagementHandler(engagement),
		UserHandler:         handler.NewUserHandler(graph, users),
		NotificationHandler: handler.NewNotificationHandler(notifications),
		JWTSecret:           cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinIO:
		return storage.NewMinIOStore(cfg)
	default:
		return storage.NewS3Store(ctx, cfg)
	}
}
