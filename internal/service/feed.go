package service

import (
	"context"
	"log"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/model"
	"chirpfeed/internal/repository"
)

// FeedService assembles feeds. Every feed has the same shape: posts newest
// first, each with its author, like and retweet sets, comments with their
// authors, and for retweets the original post (nil when it was deleted).
type FeedService struct {
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	commentRepo    repository.CommentRepository
	userRepo       repository.UserRepository
	// feeds is optional; without it the following feed is read from Postgres
	feeds cache.FeedCache
}

func NewFeedService(
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	feeds cache.FeedCache,
) *FeedService {
	return &FeedService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		commentRepo:    commentRepo,
		userRepo:       userRepo,
		feeds:          feeds,
	}
}

func (s *FeedService) Global(ctx context.Context) ([]model.Post, error) {
	posts, err := s.postRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, posts)
}

// Following returns posts by the accounts userID follows. The user's own
// posts are not included.
func (s *FeedService) Following(ctx context.Context, userID int64) ([]model.Post, error) {
	if ids, ok := s.cachedFollowingIDs(ctx, userID); ok {
		posts, err := s.postRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		return s.hydrate(ctx, posts)
	}

	posts, err := s.postRepo.ListByFollower(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, posts)
}

// cachedFollowingIDs returns the following feed ids from Redis, warming the
// cache on a miss. ok is false whenever the cache cannot answer for the whole
// feed: no cache configured, a Redis error, a warm already in flight, or a
// feed at the cap, which may have had older posts trimmed.
//
// The warm marker goes in before the Postgres snapshot is taken, so a post
// fanned out while the snapshot is in flight is merged rather than lost.
func (s *FeedService) cachedFollowingIDs(ctx context.Context, userID int64) ([]int64, bool) {
	if s.feeds == nil {
		return nil, false
	}

	ready, err := s.feeds.Ready(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] cache check failed user=%d: %v", userID, err)
		return nil, false
	}

	if !ready {
		token, err := s.feeds.BeginWarm(ctx, userID)
		if err != nil || token == "" {
			return nil, false
		}
		scores, err := s.postRepo.GetFeedPostScores(ctx, userID, cache.FeedCap)
		if err != nil {
			log.Printf("[FeedService] warm query failed user=%d: %v", userID, err)
			return nil, false
		}
		if err := s.feeds.Warm(ctx, userID, token, scores); err != nil {
			log.Printf("[FeedService] warm failed user=%d: %v", userID, err)
		}
		if len(scores) >= cache.FeedCap {
			return nil, false
		}
		ids := make([]int64, len(scores))
		for i, sc := range scores {
			ids[i] = sc.PostID
		}
		return ids, true
	}

	ids, err := s.feeds.GetFeed(ctx, userID, cache.FeedCap)
	if err != nil {
		log.Printf("[FeedService] cache read failed user=%d: %v", userID, err)
		return nil, false
	}
	if len(ids) >= cache.FeedCap {
		return nil, false
	}
	return ids, true
}

// User returns the posts authored by username.
func (s *FeedService) User(ctx context.Context, username string) ([]model.Post, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.ByAuthor(ctx, user.ID)
}

func (s *FeedService) ByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, posts)
}

// Liked returns the posts userID likes, most recently liked first.
func (s *FeedService) Liked(ctx context.Context, userID int64) ([]model.Post, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, posts)
}

// Bookmarks returns the posts userID bookmarked, most recent first.
func (s *FeedService) Bookmarks(ctx context.Context, userID int64) ([]model.Post, error) {
	posts, err := s.postRepo.ListBookmarkedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, posts)
}

// Post returns one post in feed shape.
func (s *FeedService) Post(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	posts, err := s.hydrate(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *FeedService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}
	return nil
}

// hydrate joins engagement sets, comments and retweet originals onto posts
// with a fixed number of batch queries, whatever the feed length.
func (s *FeedService) hydrate(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	if len(posts) == 0 {
		return []model.Post{}, nil
	}

	var originalIDs []int64
	for _, p := range posts {
		if p.IsRetweet() && p.OriginalPostID != nil {
			originalIDs = append(originalIDs, *p.OriginalPostID)
		}
	}
	originals, err := s.postRepo.GetByIDs(ctx, originalIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(posts)+len(originals))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	for _, o := range originals {
		ids = append(ids, o.ID)
	}

	likes, err := s.engagementRepo.GetLikerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	retweets, err := s.postRepo.GetRetweeterIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.GetByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	attach := func(p *model.Post) {
		p.Likes = orEmpty(likes[p.ID])
		p.Retweets = orEmpty(retweets[p.ID])
		p.Comments = comments[p.ID]
		if p.Comments == nil {
			p.Comments = []model.Comment{}
		}
	}

	byID := make(map[int64]*model.Post, len(originals))
	for i := range originals {
		attach(&originals[i])
		byID[originals[i].ID] = &originals[i]
	}

	out := make([]model.Post, len(posts))
	for i, p := range posts {
		attach(&p)
		if p.IsRetweet() && p.OriginalPostID != nil {
			p.OriginalPost = byID[*p.OriginalPostID]
		}
		out[i] = p
	}
	return out, nil
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
