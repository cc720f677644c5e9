package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"chirpfeed/internal/model"
	"chirpfeed/internal/queue"
	"chirpfeed/internal/repository"
)

// EngagementService implements the like, retweet and bookmark toggles and
// comment appends.
//
// Each toggle is "remove if present, else add" on a single canonical row, run
// inside one transaction together with any notification it emits. Reverse
// indexes (a user's liked posts, a post's retweeters) are views over the same
// rows, so both sides change together. Retweets and comments never notify.
type EngagementService struct {
	db             *sqlx.DB
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	commentRepo    repository.CommentRepository
	notifications  *NotificationService
	feed           *FeedService
	publisher      queue.Publisher
}

func NewEngagementService(
	db *sqlx.DB,
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	commentRepo repository.CommentRepository,
	notifications *NotificationService,
	feed *FeedService,
	publisher queue.Publisher,
) *EngagementService {
	return &EngagementService{
		db:             db,
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		commentRepo:    commentRepo,
		notifications:  notifications,
		feed:           feed,
		publisher:      publisher,
	}
}

func (s *EngagementService) ToggleLike(ctx context.Context, userID, postID int64) (*model.LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.engagementRepo.RemoveLike(ctx, tx, postID, userID)
	if err != nil {
		return nil, err
	}

	if !removed {
		added, err := s.engagementRepo.AddLike(ctx, tx, postID, userID)
		if err != nil {
			return nil, err
		}
		// added is false only when a concurrent request liked first; the
		// like is on either way and that request owns the notification.
		if added {
			if _, err := s.notifications.Emit(ctx, tx, userID, post.UserID, model.NotificationTypeLike, &postID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[EngagementService] like post=%d user=%d liked=%t", postID, userID, !removed)
	return &model.LikeResult{Liked: !removed}, nil
}

// ToggleRetweet retweets or un-retweets postID. The new retweet references
// postID as given, which may itself be a retweet.
func (s *EngagementService) ToggleRetweet(ctx context.Context, userID, postID int64) (*model.RetweetResult, error) {
	target, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	retweetID, removed, err := s.postRepo.DeleteRetweet(ctx, tx, userID, target.ID)
	if err != nil {
		return nil, err
	}

	var event *queue.FeedEvent
	if removed {
		e := queue.NewPostDeletedEvent(retweetID, userID)
		event = &e
	} else {
		var created bool
		retweetID, created, err = s.postRepo.CreateRetweet(ctx, tx, userID, target.ID)
		if err != nil {
			return nil, err
		}
		if created {
			e := queue.NewPostCreatedEvent(retweetID, userID, time.Now())
			event = &e
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if event != nil {
		queue.PublishFeedEvent(ctx, s.publisher, *event)
	}

	log.Printf("[EngagementService] retweet original=%d user=%d retweeted=%t", target.ID, userID, !removed)
	return &model.RetweetResult{Retweeted: !removed}, nil
}

// ToggleBookmark flips the bookmark and returns the user's full bookmark list.
// Only adding a bookmark notifies the author.
func (s *EngagementService) ToggleBookmark(ctx context.Context, userID, postID int64) (*model.BookmarkResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.engagementRepo.RemoveBookmark(ctx, tx, userID, postID)
	if err != nil {
		return nil, err
	}

	if !removed {
		added, err := s.engagementRepo.AddBookmark(ctx, tx, userID, postID)
		if err != nil {
			return nil, err
		}
		if added {
			if _, err := s.notifications.Emit(ctx, tx, userID, post.UserID, model.NotificationTypeBookmark, &postID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	bookmarks, err := s.engagementRepo.GetBookmarkIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []int64{}
	}

	return &model.BookmarkResult{Bookmarked: !removed, Bookmarks: bookmarks}, nil
}

// AddComment appends a comment and returns the post in feed shape.
func (s *EngagementService) AddComment(ctx context.Context, userID, postID int64, text string) (*model.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrCommentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxPostTextLength {
		return nil, model.ErrCommentTooLong
	}

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	if _, err := s.commentRepo.Create(ctx, postID, userID, text); err != nil {
		return nil, err
	}

	log.Printf("[EngagementService] comment post=%d user=%d", postID, userID)
	return s.feed.Post(ctx, postID)
}
