package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/queue"
)

// FollowerProvider lists who follows a user.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// PostsProvider lists a user's recent posts as feed cache scores.
type PostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

const (
	// backfillLimit is how many of a new followee's posts are copied in
	backfillLimit = 50
	// unfollowScanLimit covers every post of the followee that can still be
	// inside a capped feed
	unfollowScanLimit = cache.FeedCap
)

// ErrUnknownEvent marks an event no handler understands. Replaying it can
// never succeed.
var ErrUnknownEvent = errors.New("unknown event type")

// Handler applies feed events to the feed cache. A user's own posts are not
// part of their following feed, so the author is never fanned out to.
type Handler struct {
	feeds     cache.FeedCache
	followers FollowerProvider
	posts     PostsProvider
}

func NewHandler(feeds cache.FeedCache, followers FollowerProvider, posts PostsProvider) *Handler {
	return &Handler{feeds: feeds, followers: followers, posts: posts}
}

func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	switch event.Type {
	case queue.EventPostCreated:
		return h.postCreated(ctx, event)
	case queue.EventPostDeleted:
		return h.postDeleted(ctx, event)
	case queue.EventUserFollowed:
		return h.userFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		return h.userUnfollowed(ctx, event)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}
}

func (h *Handler) postCreated(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followers.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failed []int64
	for _, id := range followers {
		if err := h.feeds.AddPost(ctx, id, event.PostID, event.PostTime); err != nil {
			failed = append(failed, id)
		}
	}

	log.Printf("[Worker] post.created post=%d author=%d fanout=%d failed=%d",
		event.PostID, event.AuthorID, len(followers), len(failed))
	if err := h.dropFeeds(ctx, failed); err != nil {
		return fmt.Errorf("fan out post %d: %w", event.PostID, err)
	}
	return nil
}

func (h *Handler) postDeleted(ctx context.Context, event queue.FeedEvent) error {
	followers, err := h.followers.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failed []int64
	for _, id := range followers {
		if err := h.feeds.RemovePosts(ctx, id, event.PostID); err != nil {
			failed = append(failed, id)
		}
	}

	log.Printf("[Worker] post.deleted post=%d author=%d fanout=%d failed=%d",
		event.PostID, event.AuthorID, len(followers), len(failed))
	if err := h.dropFeeds(ctx, failed); err != nil {
		return fmt.Errorf("remove post %d: %w", event.PostID, err)
	}
	return nil
}

// dropFeeds invalidates feeds an update could not reach, so their next read
// rebuilds them from Postgres. An error means at least one feed is still
// stale and the event has to be replayed.
func (h *Handler) dropFeeds(ctx context.Context, userIDs []int64) error {
	stale := 0
	for _, id := range userIDs {
		if err := h.feeds.Invalidate(ctx, id); err != nil {
			log.Printf("[Worker] invalidate feed user=%d: %v", id, err)
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d of %d feeds left stale", stale, len(userIDs))
	}
	return nil
}

func (h *Handler) userFollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.posts.GetRecentPostsByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	for _, p := range posts {
		if err := h.feeds.AddPost(ctx, event.FollowerID, p.PostID, p.Timestamp); err != nil {
			log.Printf("[Worker] backfill post=%d follower=%d: %v", p.PostID, event.FollowerID, err)
			if err := h.dropFeeds(ctx, []int64{event.FollowerID}); err != nil {
				return fmt.Errorf("backfill post %d: %w", p.PostID, err)
			}
			return nil
		}
	}

	log.Printf("[Worker] user.followed follower=%d followee=%d backfilled=%d",
		event.FollowerID, event.FolloweeID, len(posts))
	return nil
}

func (h *Handler) userUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.posts.GetRecentPostsByUser(ctx, event.FolloweeID, unfollowScanLimit)
	if err != nil {
		return fmt.Errorf("get posts to remove: %w", err)
	}

	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	if err := h.feeds.RemovePosts(ctx, event.FollowerID, ids...); err != nil {
		log.Printf("[Worker] unfollow cleanup follower=%d: %v", event.FollowerID, err)
		if err := h.dropFeeds(ctx, []int64{event.FollowerID}); err != nil {
			return fmt.Errorf("remove followee posts: %w", err)
		}
		return nil
	}

	log.Printf("[Worker] user.unfollowed follower=%d followee=%d removed=%d",
		event.FollowerID, event.FolloweeID, len(ids))
	return nil
}
