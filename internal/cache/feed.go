package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// FeedKeyPrefix prefixes the sorted set holding a user's following feed
	FeedKeyPrefix = "feed:user:"

	// FeedCap bounds how many post ids are kept per feed
	FeedCap = 500

	FeedTTL = 7 * 24 * time.Hour

	// WarmTTL bounds how long an abandoned warm keeps a feed unreadable
	WarmTTL = 30 * time.Second

	// warmScore sorts warm markers below every real post, whose scores are
	// positive creation times
	warmScore    = -1
	warmPrefix   = "warming:"
	minPostScore = "0"
)

// PostScore pairs a post id with its creation time in microseconds.
type PostScore struct {
	PostID    int64
	Timestamp int64
}

// FeedCache keeps, per user, the ids of posts from the accounts they follow.
// Scores are creation times, so a reverse range is newest first.
type FeedCache interface {
	// AddPost inserts into an existing feed only. A missing feed is left
	// missing so the next read warms it in full instead of trusting a partial set.
	AddPost(ctx context.Context, userID, postID, timestamp int64) error
	RemovePosts(ctx context.Context, userID int64, postIDs ...int64) error
	// GetFeed returns up to limit post ids, newest first
	GetFeed(ctx context.Context, userID int64, limit int) ([]int64, error)
	// BeginWarm creates a missing feed holding only a warm marker, so AddPost
	// calls that race with the rebuild land in it. token is empty when the
	// feed already exists or another warm holds it.
	BeginWarm(ctx context.Context, userID int64) (token string, err error)
	// Warm merges posts into the feed started by BeginWarm and clears the
	// marker. It is a no-op when the marker is gone, e.g. after Invalidate.
	Warm(ctx context.Context, userID int64, token string, posts []PostScore) error
	// Ready reports whether the feed is present and fully built. An expired,
	// never built or half-warmed feed cannot be trusted.
	Ready(ctx context.Context, userID int64) (bool, error)
	// Invalidate drops the feed so the next read rebuilds it
	Invalidate(ctx context.Context, userID int64) error
}

type redisFeedCache struct {
	client *redis.Client
}

func NewFeedCache(client *redis.Client) FeedCache {
	return &redisFeedCache{client: client}
}

func feedKey(userID int64) string {
	return FeedKeyPrefix + strconv.FormatInt(userID, 10)
}

func member(postID int64) string {
	return strconv.FormatInt(postID, 10)
}

// addIfExists runs ZADD only when the feed key is present. The cap trim and
// the TTL refresh wait while a warm is in flight, so the marker and its short
// TTL survive until Warm finishes.
var addIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
if redis.call('ZCOUNT', KEYS[1], '-inf', '(0') == 0 then
	redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -tonumber(ARGV[3]) - 1)
	redis.call('EXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

var beginWarm = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

// finishWarm expects ARGV = marker, cap, ttl, then score/member pairs.
var finishWarm = redis.NewScript(`
if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
	return 0
end
for i = 4, #ARGV, 2 do
	redis.call('ZADD', KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -tonumber(ARGV[2]) - 1)
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

var feedReady = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if redis.call('ZCOUNT', KEYS[1], '-inf', '(0') > 0 then
	return 0
end
return 1
`)

func (c *redisFeedCache) AddPost(ctx context.Context, userID, postID, timestamp int64) error {
	err := addIfExists.Run(ctx, c.client, []string{feedKey(userID)},
		timestamp, member(postID), FeedCap, int64(FeedTTL/time.Second)).Err()
	if err != nil {
		log.Printf("[FeedCache] AddPost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("add post to feed: %w", err)
	}
	return nil
}

func (c *redisFeedCache) RemovePosts(ctx context.Context, userID int64, postIDs ...int64) error {
	if len(postIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = member(id)
	}
	if err := c.client.ZRem(ctx, feedKey(userID), members...).Err(); err != nil {
		log.Printf("[FeedCache] RemovePosts FAILED: user=%d count=%d err=%v", userID, len(postIDs), err)
		return fmt.Errorf("remove posts from feed: %w", err)
	}
	return nil
}

func (c *redisFeedCache) GetFeed(ctx context.Context, userID int64, limit int) ([]int64, error) {
	key := feedKey(userID)
	start := time.Now()

	members, err := c.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   minPostScore,
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		log.Printf("[FeedCache] GetFeed FAILED: user=%d err=%v", userID, err)
		return nil, fmt.Errorf("get feed: %w", err)
	}
	c.client.Expire(ctx, key, FeedTTL)

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse feed member %q: %w", m, err)
		}
		ids = append(ids, id)
	}

	log.Printf("[FeedCache] GetFeed OK: user=%d returned=%d duration=%v", userID, len(ids), time.Since(start))
	return ids, nil
}

func (c *redisFeedCache) BeginWarm(ctx context.Context, userID int64) (string, error) {
	token := warmPrefix + uuid.NewString()
	started, err := beginWarm.Run(ctx, c.client, []string{feedKey(userID)},
		warmScore, token, int64(WarmTTL/time.Second)).Int()
	if err != nil {
		log.Printf("[FeedCache] BeginWarm FAILED: user=%d err=%v", userID, err)
		return "", fmt.Errorf("begin warm: %w", err)
	}
	if started == 0 {
		return "", nil
	}
	return token, nil
}

// Warm adds posts with ZADD instead of replacing the set, so posts fanned out
// between the snapshot query and this call are kept. An empty feed leaves no
// key behind and the next read warms again, which is cheap for users who
// follow no one.
func (c *redisFeedCache) Warm(ctx context.Context, userID int64, token string, posts []PostScore) error {
	args := make([]interface{}, 0, 3+2*len(posts))
	args = append(args, token, FeedCap, int64(FeedTTL/time.Second))
	for _, p := range posts {
		args = append(args, p.Timestamp, member(p.PostID))
	}

	merged, err := finishWarm.Run(ctx, c.client, []string{feedKey(userID)}, args...).Int()
	if err != nil {
		log.Printf("[FeedCache] Warm FAILED: user=%d posts=%d err=%v", userID, len(posts), err)
		return fmt.Errorf("warm feed: %w", err)
	}
	if merged == 0 {
		log.Printf("[FeedCache] Warm SKIPPED: user=%d marker gone", userID)
		return nil
	}

	log.Printf("[FeedCache] Warm OK: user=%d posts=%d", userID, len(posts))
	return nil
}

func (c *redisFeedCache) Ready(ctx context.Context, userID int64) (bool, error) {
	ready, err := feedReady.Run(ctx, c.client, []string{feedKey(userID)}).Int()
	if err != nil {
		return false, fmt.Errorf("check feed ready: %w", err)
	}
	return ready == 1, nil
}

func (c *redisFeedCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, feedKey(userID)).Err(); err != nil {
		log.Printf("[FeedCache] Invalidate FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("invalidate feed: %w", err)
	}
	return nil
}
