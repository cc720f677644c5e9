package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/model"
	"chirpfeed/internal/queue"
	"chirpfeed/internal/repository"
	"chirpfeed/internal/storage"
)

// ImageStore stores and deletes normalized images. *storage.Uploader
// satisfies it.
type ImageStore interface {
	StoreImage(ctx context.Context, v storage.Variant, img *model.ImageUpload) (*model.StoredImage, error)
	DeleteImage(ctx context.Context, key string) error
}

type PostService struct {
	db        *sqlx.DB
	postRepo  repository.PostRepository
	images    ImageStore
	feed      *FeedService
	publisher queue.Publisher
}

func NewPostService(
	db *sqlx.DB,
	postRepo repository.PostRepository,
	images ImageStore,
	feed *FeedService,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		db:        db,
		postRepo:  postRepo,
		images:    images,
		feed:      feed,
		publisher: publisher,
	}
}

// Create stores the optional image, then inserts an original post. A post
// needs text or an image.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && req.Image == nil {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxPostTextLength {
		return nil, model.ErrTextTooLong
	}

	post := &model.Post{UserID: userID}
	if text != "" {
		post.Text = &text
	}

	if req.Image != nil {
		stored, err := s.images.StoreImage(ctx, storage.PostImage, req.Image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = &stored.URL
		post.ImageKey = &stored.Key
	}

	if err := s.insert(ctx, post); err != nil {
		if post.ImageKey != nil {
			s.deleteImage(ctx, *post.ImageKey)
		}
		return nil, err
	}

	queue.PublishFeedEvent(ctx, s.publisher, queue.NewPostCreatedEvent(post.ID, userID, post.CreatedAt))
	log.Printf("[PostService] created post=%d user=%d image=%t", post.ID, userID, post.ImageKey != nil)

	return s.feed.Post(ctx, post.ID)
}

func (s *PostService) insert(ctx context.Context, post *model.Post) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Create(ctx, tx, post); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the requester's own post and its stored image. Deleting a
// retweet takes the requester out of the original's retweet set, since that
// set is made of retweet rows. Retweets of a deleted original stay and
// render with a null original.
func (s *PostService) Delete(ctx context.Context, requesterID, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return model.ErrNotPostOwner
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Delete(ctx, tx, postID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if post.ImageKey != nil {
		s.deleteImage(ctx, *post.ImageKey)
	}

	queue.PublishFeedEvent(ctx, s.publisher, queue.NewPostDeletedEvent(postID, requesterID))
	log.Printf("[PostService] deleted post=%d user=%d", postID, requesterID)
	return nil
}

// deleteImage is best-effort: the database no longer references the object,
// so a failure only leaks storage.
func (s *PostService) deleteImage(ctx context.Context, key string) {
	if err := s.images.DeleteImage(ctx, key); err != nil {
		log.Printf("[PostService] failed to delete image key=%s: %v", key, err)
	}
}
